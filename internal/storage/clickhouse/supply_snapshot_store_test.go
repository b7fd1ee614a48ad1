package clickhouse_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"where-money-moves/internal/domain"
	"where-money-moves/internal/storage"
	"where-money-moves/internal/storage/clickhouse"
)

func snapshot(ts int64, minted uint64) *domain.SupplySnapshot {
	return &domain.SupplySnapshot{
		TimestampMs: ts,
		BlockNumber: uint64(ts / 1000),
		TotalMinted: minted,
		MaxSupply:   6969,
	}
}

func TestSupplySnapshotStore_InsertBulkAndGetByTimeRange(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := clickhouse.NewSupplySnapshotStore(conn)

	err := store.InsertBulk(ctx, []*domain.SupplySnapshot{
		snapshot(3000, 30),
		snapshot(1000, 10),
		snapshot(2000, 20),
	})
	require.NoError(t, err)

	result, err := store.GetByTimeRange(ctx, 1000, 2000)
	require.NoError(t, err)
	require.Len(t, result, 2)

	assert.Equal(t, int64(1000), result[0].TimestampMs)
	assert.Equal(t, uint64(10), result[0].TotalMinted)
	assert.Equal(t, uint64(6969), result[0].MaxSupply)
	assert.Equal(t, uint64(1), result[0].BlockNumber)
	assert.Equal(t, int64(2000), result[1].TimestampMs)
}

func TestSupplySnapshotStore_DuplicateRejected(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := clickhouse.NewSupplySnapshotStore(conn)

	require.NoError(t, store.InsertBulk(ctx, []*domain.SupplySnapshot{snapshot(1000, 10)}))

	// Existing row
	err := store.InsertBulk(ctx, []*domain.SupplySnapshot{snapshot(2000, 20), snapshot(1000, 11)})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// Intra-batch
	err = store.InsertBulk(ctx, []*domain.SupplySnapshot{snapshot(5000, 50), snapshot(5000, 51)})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// Nothing from the rejected batches was written
	result, err := store.GetByTimeRange(ctx, 0, 10000)
	require.NoError(t, err)
	assert.Len(t, result, 1)
}

func TestSupplySnapshotStore_GetLatest(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := clickhouse.NewSupplySnapshotStore(conn)

	_, err := store.GetLatest(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.InsertBulk(ctx, []*domain.SupplySnapshot{
		snapshot(1000, 10),
		snapshot(4000, 40),
		snapshot(2000, 20),
	}))

	latest, err := store.GetLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4000), latest.TimestampMs)
	assert.Equal(t, uint64(40), latest.TotalMinted)
}

func TestSupplySnapshotStore_InvalidInput(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := clickhouse.NewSupplySnapshotStore(conn)

	err := store.InsertBulk(context.Background(), []*domain.SupplySnapshot{nil})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
