package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"where-money-moves/internal/domain"
	"where-money-moves/internal/storage"
)

// SupplySnapshotStore implements storage.SupplySnapshotStore using ClickHouse.
// MergeTree does not enforce uniqueness, so duplicates are checked before insert.
type SupplySnapshotStore struct {
	conn *Conn
}

// NewSupplySnapshotStore creates a new SupplySnapshotStore.
func NewSupplySnapshotStore(conn *Conn) *SupplySnapshotStore {
	return &SupplySnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SupplySnapshotStore = (*SupplySnapshotStore)(nil)

// InsertBulk adds multiple snapshots. Fails entire batch on duplicate timestamp_ms.
func (s *SupplySnapshotStore) InsertBulk(ctx context.Context, snapshots []*domain.SupplySnapshot) (err error) {
	if len(snapshots) == 0 {
		return nil
	}

	start := time.Now()
	defer func() { observe("insert_supply_snapshots", start, err) }()

	seen := make(map[int64]struct{}, len(snapshots))
	for _, snap := range snapshots {
		if snap == nil || snap.TimestampMs <= 0 {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[snap.TimestampMs]; exists {
			return storage.ErrDuplicateKey
		}
		seen[snap.TimestampMs] = struct{}{}
	}

	for _, snap := range snapshots {
		exists, err := s.exists(ctx, snap.TimestampMs)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO supply_snapshots (
			timestamp_ms, block_number, total_minted, max_supply
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, snap := range snapshots {
		err = batch.Append(
			uint64(snap.TimestampMs), snap.BlockNumber, snap.TotalMinted, snap.MaxSupply,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByTimeRange retrieves snapshots within [start, end] (inclusive), ordered by timestamp ASC.
func (s *SupplySnapshotStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.SupplySnapshot, error) {
	if start < 0 {
		start = 0
	}
	if end < start {
		return nil, nil
	}

	query := `
		SELECT timestamp_ms, block_number, total_minted, max_supply
		FROM supply_snapshots
		WHERE timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanSupplySnapshots(rows)
}

// GetLatest returns the most recent snapshot. Returns ErrNotFound if empty.
func (s *SupplySnapshotStore) GetLatest(ctx context.Context) (_ *domain.SupplySnapshot, err error) {
	start := time.Now()
	defer func() { observe("get_latest_supply", start, err) }()

	query := `
		SELECT timestamp_ms, block_number, total_minted, max_supply
		FROM supply_snapshots
		ORDER BY timestamp_ms DESC
		LIMIT 1
	`

	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query latest: %w", err)
	}
	defer rows.Close()

	snapshots, err := scanSupplySnapshots(rows)
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, storage.ErrNotFound
	}
	return snapshots[0], nil
}

// exists checks if a snapshot with the given timestamp exists.
func (s *SupplySnapshotStore) exists(ctx context.Context, timestampMs int64) (bool, error) {
	query := `SELECT count(*) FROM supply_snapshots WHERE timestamp_ms = ?`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, uint64(timestampMs)).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func scanSupplySnapshots(rows driver.Rows) ([]*domain.SupplySnapshot, error) {
	var snapshots []*domain.SupplySnapshot
	for rows.Next() {
		var (
			timestampMs uint64
			snap        domain.SupplySnapshot
		)
		if err := rows.Scan(&timestampMs, &snap.BlockNumber, &snap.TotalMinted, &snap.MaxSupply); err != nil {
			return nil, fmt.Errorf("scan supply snapshot: %w", err)
		}
		snap.TimestampMs = int64(timestampMs)
		snapshots = append(snapshots, &snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate supply snapshots: %w", err)
	}

	return snapshots, nil
}
