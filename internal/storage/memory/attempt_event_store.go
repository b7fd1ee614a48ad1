package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"where-money-moves/internal/domain"
	"where-money-moves/internal/storage"
)

// AttemptEventStore is an in-memory implementation of storage.AttemptEventStore.
type AttemptEventStore struct {
	mu   sync.RWMutex
	data map[string]*domain.AttemptEvent // keyed by (attempt_id, seq)
}

// NewAttemptEventStore creates a new in-memory attempt event store.
func NewAttemptEventStore() *AttemptEventStore {
	return &AttemptEventStore{
		data: make(map[string]*domain.AttemptEvent),
	}
}

func attemptEventKey(attemptID string, seq int) string {
	return fmt.Sprintf("%s|%d", attemptID, seq)
}

// Insert appends an event. Returns ErrDuplicateKey if (attempt_id, seq) exists.
func (s *AttemptEventStore) Insert(_ context.Context, e *domain.AttemptEvent) error {
	if e == nil || e.AttemptID == "" || !e.State.IsValid() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := attemptEventKey(e.AttemptID, e.Seq)
	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	eventCopy := *e
	s.data[key] = &eventCopy
	return nil
}

// GetByAttemptID retrieves all events of an attempt, ordered by seq ASC.
func (s *AttemptEventStore) GetByAttemptID(_ context.Context, attemptID string) ([]*domain.AttemptEvent, error) {
	return s.filter(func(e *domain.AttemptEvent) bool { return e.AttemptID == attemptID }), nil
}

// GetByAccount retrieves all events for an account, ordered by created_at ASC, seq ASC.
func (s *AttemptEventStore) GetByAccount(_ context.Context, account string) ([]*domain.AttemptEvent, error) {
	return s.filter(func(e *domain.AttemptEvent) bool { return e.Account == account }), nil
}

func (s *AttemptEventStore) filter(match func(*domain.AttemptEvent) bool) []*domain.AttemptEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.AttemptEvent
	for _, e := range s.data {
		if match(e) {
			eventCopy := *e
			result = append(result, &eventCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt < result[j].CreatedAt
		}
		if result[i].AttemptID != result[j].AttemptID {
			return result[i].AttemptID < result[j].AttemptID
		}
		return result[i].Seq < result[j].Seq
	})

	return result
}

// Compile-time interface check.
var _ storage.AttemptEventStore = (*AttemptEventStore)(nil)
