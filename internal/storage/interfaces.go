package storage

import (
	"context"

	"where-money-moves/internal/domain"
)

// AttemptEventStore provides access to mint_attempt_events storage.
type AttemptEventStore interface {
	// Insert appends a transition. Returns ErrDuplicateKey if (attempt_id, seq) exists.
	Insert(ctx context.Context, e *domain.AttemptEvent) error

	// GetByAttemptID retrieves all events of an attempt, ordered by seq ASC.
	GetByAttemptID(ctx context.Context, attemptID string) ([]*domain.AttemptEvent, error)

	// GetByAccount retrieves all events for an account, ordered by created_at ASC, seq ASC.
	GetByAccount(ctx context.Context, account string) ([]*domain.AttemptEvent, error)
}

// SupplySnapshotStore provides access to supply_snapshots storage.
type SupplySnapshotStore interface {
	// InsertBulk adds multiple snapshots. Fails entire batch on any duplicate timestamp.
	InsertBulk(ctx context.Context, snapshots []*domain.SupplySnapshot) error

	// GetByTimeRange retrieves snapshots within [start, end] (inclusive), ordered by timestamp ASC.
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.SupplySnapshot, error)

	// GetLatest returns the most recent snapshot. Returns ErrNotFound if empty.
	GetLatest(ctx context.Context) (*domain.SupplySnapshot, error)
}
