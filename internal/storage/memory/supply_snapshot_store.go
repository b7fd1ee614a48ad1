package memory

import (
	"context"
	"sort"
	"sync"

	"where-money-moves/internal/domain"
	"where-money-moves/internal/storage"
)

// SupplySnapshotStore is an in-memory implementation of storage.SupplySnapshotStore.
type SupplySnapshotStore struct {
	mu   sync.RWMutex
	data map[int64]*domain.SupplySnapshot // keyed by timestamp_ms
}

// NewSupplySnapshotStore creates a new in-memory supply snapshot store.
func NewSupplySnapshotStore() *SupplySnapshotStore {
	return &SupplySnapshotStore{
		data: make(map[int64]*domain.SupplySnapshot),
	}
}

// InsertBulk adds multiple snapshots. Fails entire batch on duplicate.
func (s *SupplySnapshotStore) InsertBulk(_ context.Context, snapshots []*domain.SupplySnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[int64]struct{}, len(snapshots))
	for _, snap := range snapshots {
		if snap == nil || snap.TimestampMs <= 0 {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[snap.TimestampMs]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[snap.TimestampMs]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[snap.TimestampMs] = struct{}{}
	}

	for _, snap := range snapshots {
		snapCopy := *snap
		s.data[snap.TimestampMs] = &snapCopy
	}
	return nil
}

// GetByTimeRange retrieves snapshots within [start, end], ordered by timestamp ASC.
func (s *SupplySnapshotStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.SupplySnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SupplySnapshot
	for ts, snap := range s.data {
		if ts >= start && ts <= end {
			snapCopy := *snap
			result = append(result, &snapCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})
	return result, nil
}

// GetLatest returns the most recent snapshot.
func (s *SupplySnapshotStore) GetLatest(_ context.Context) (*domain.SupplySnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.SupplySnapshot
	for _, snap := range s.data {
		if latest == nil || snap.TimestampMs > latest.TimestampMs {
			latest = snap
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}

	snapCopy := *latest
	return &snapCopy, nil
}

// Compile-time interface check.
var _ storage.SupplySnapshotStore = (*SupplySnapshotStore)(nil)
