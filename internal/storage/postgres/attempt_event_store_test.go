package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"where-money-moves/internal/domain"
	"where-money-moves/internal/storage"
)

func createTestAttemptEvent(attemptID string, seq int, state domain.MintState, createdAt int64) *domain.AttemptEvent {
	return &domain.AttemptEvent{
		AttemptID: attemptID,
		Seq:       seq,
		Account:   "0x00000000000000000000000000000000000000a1",
		State:     state,
		Quantity:  2,
		CreatedAt: createdAt,
	}
}

func TestAttemptEventStore_InsertAndGetByAttemptID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewAttemptEventStore(pool)

	submitted := createTestAttemptEvent("attempt-1", 1, domain.MintSubmitting, 2000)
	submitted.TxHash = ptr("0xabc")
	confirmed := createTestAttemptEvent("attempt-1", 2, domain.MintSucceeded, 3000)
	confirmed.Message = "Successfully minted 2 editions!"

	// Insert out of order
	require.NoError(t, store.Insert(ctx, confirmed))
	require.NoError(t, store.Insert(ctx, createTestAttemptEvent("attempt-1", 0, domain.MintAwaitingWallet, 1000)))
	require.NoError(t, store.Insert(ctx, submitted))

	events, err := store.GetByAttemptID(ctx, "attempt-1")
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, 0, events[0].Seq)
	assert.Equal(t, domain.MintAwaitingWallet, events[0].State)
	assert.Nil(t, events[0].TxHash)

	assert.Equal(t, domain.MintSubmitting, events[1].State)
	require.NotNil(t, events[1].TxHash)
	assert.Equal(t, "0xabc", *events[1].TxHash)

	assert.Equal(t, domain.MintSucceeded, events[2].State)
	assert.Equal(t, "Successfully minted 2 editions!", events[2].Message)
	assert.Equal(t, int64(3000), events[2].CreatedAt)
	assert.Equal(t, 2, events[2].Quantity)
}

func TestAttemptEventStore_DuplicateKey(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewAttemptEventStore(pool)

	require.NoError(t, store.Insert(ctx, createTestAttemptEvent("attempt-dup", 0, domain.MintAwaitingWallet, 1000)))

	err := store.Insert(ctx, createTestAttemptEvent("attempt-dup", 0, domain.MintFailed, 1500))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestAttemptEventStore_InvalidInput(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewAttemptEventStore(pool)

	err := store.Insert(ctx, createTestAttemptEvent("", 0, domain.MintIdle, 1000))
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	err = store.Insert(ctx, createTestAttemptEvent("attempt-x", 0, domain.MintState("MINTED"), 1000))
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestAttemptEventStore_GetByAccount(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewAttemptEventStore(pool)

	other := createTestAttemptEvent("attempt-b", 0, domain.MintAwaitingWallet, 500)
	other.Account = "0x00000000000000000000000000000000000000b2"

	require.NoError(t, store.Insert(ctx, createTestAttemptEvent("attempt-a2", 0, domain.MintAwaitingWallet, 5000)))
	require.NoError(t, store.Insert(ctx, createTestAttemptEvent("attempt-a1", 1, domain.MintFailed, 1000)))
	require.NoError(t, store.Insert(ctx, createTestAttemptEvent("attempt-a1", 0, domain.MintAwaitingWallet, 1000)))
	require.NoError(t, store.Insert(ctx, other))

	events, err := store.GetByAccount(ctx, "0x00000000000000000000000000000000000000a1")
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, "attempt-a1", events[0].AttemptID)
	assert.Equal(t, 0, events[0].Seq)
	assert.Equal(t, "attempt-a1", events[1].AttemptID)
	assert.Equal(t, 1, events[1].Seq)
	assert.Equal(t, "attempt-a2", events[2].AttemptID)
}

func TestAttemptEventStore_GetByAttemptID_Empty(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAttemptEventStore(pool)

	events, err := store.GetByAttemptID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, events)
}
