package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"where-money-moves/internal/domain"
	"where-money-moves/internal/storage"
)

// AttemptEventStore implements storage.AttemptEventStore using PostgreSQL.
type AttemptEventStore struct {
	pool *Pool
}

// NewAttemptEventStore creates a new AttemptEventStore.
func NewAttemptEventStore(pool *Pool) *AttemptEventStore {
	return &AttemptEventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AttemptEventStore = (*AttemptEventStore)(nil)

// Insert appends an event. Returns ErrDuplicateKey if (attempt_id, seq) exists.
func (s *AttemptEventStore) Insert(ctx context.Context, e *domain.AttemptEvent) (err error) {
	if e == nil || e.AttemptID == "" || !e.State.IsValid() {
		return storage.ErrInvalidInput
	}

	start := time.Now()
	defer func() { observe("insert_attempt_event", start, err) }()

	query := `
		INSERT INTO mint_attempt_events (
			attempt_id, seq, account, state, quantity, tx_hash, message, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = s.pool.Exec(ctx, query,
		e.AttemptID, e.Seq, e.Account, string(e.State),
		e.Quantity, e.TxHash, e.Message, e.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert attempt event: %w", err)
	}
	return nil
}

// GetByAttemptID retrieves all events of an attempt, ordered by seq ASC.
func (s *AttemptEventStore) GetByAttemptID(ctx context.Context, attemptID string) (events []*domain.AttemptEvent, err error) {
	start := time.Now()
	defer func() { observe("get_attempt_events", start, err) }()

	query := `
		SELECT attempt_id, seq, account, state, quantity, tx_hash, message, created_at
		FROM mint_attempt_events
		WHERE attempt_id = $1
		ORDER BY seq ASC
	`

	rows, err := s.pool.Query(ctx, query, attemptID)
	if err != nil {
		return nil, fmt.Errorf("query attempt events by attempt id: %w", err)
	}
	defer rows.Close()

	return scanAttemptEvents(rows)
}

// GetByAccount retrieves all events for an account, ordered by created_at ASC, seq ASC.
func (s *AttemptEventStore) GetByAccount(ctx context.Context, account string) (events []*domain.AttemptEvent, err error) {
	start := time.Now()
	defer func() { observe("get_account_events", start, err) }()

	query := `
		SELECT attempt_id, seq, account, state, quantity, tx_hash, message, created_at
		FROM mint_attempt_events
		WHERE account = $1
		ORDER BY created_at ASC, attempt_id ASC, seq ASC
	`

	rows, err := s.pool.Query(ctx, query, account)
	if err != nil {
		return nil, fmt.Errorf("query attempt events by account: %w", err)
	}
	defer rows.Close()

	return scanAttemptEvents(rows)
}

func scanAttemptEvents(rows pgx.Rows) ([]*domain.AttemptEvent, error) {
	var events []*domain.AttemptEvent
	for rows.Next() {
		var (
			e     domain.AttemptEvent
			state string
		)
		err := rows.Scan(
			&e.AttemptID, &e.Seq, &e.Account, &state,
			&e.Quantity, &e.TxHash, &e.Message, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan attempt event: %w", err)
		}
		e.State = domain.MintState(state)
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempt events: %w", err)
	}

	return events, nil
}
