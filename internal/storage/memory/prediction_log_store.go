package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"petrol-price-lab/internal/domain"
	"petrol-price-lab/internal/storage"
)

// PredictionLogStore is an in-memory implementation of storage.PredictionLogStore.
type PredictionLogStore struct {
	mu     sync.RWMutex
	data   []*domain.PredictionLog
	nextID int64
}

// NewPredictionLogStore creates a new in-memory prediction log store.
func NewPredictionLogStore() *PredictionLogStore {
	return &PredictionLogStore{nextID: 1}
}

// Compile-time interface check.
var _ storage.PredictionLogStore = (*PredictionLogStore)(nil)

// Insert appends a new log entry.
func (s *PredictionLogStore) Insert(_ context.Context, l *domain.PredictionLog) error {
	if l == nil || l.ModelVersion == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := *l
	rec.ID = s.nextID
	rec.Predictions = append([]domain.PredictionPoint(nil), l.Predictions...)
	if rec.RequestTime.IsZero() {
		rec.RequestTime = time.Now().UTC()
	}
	s.nextID++
	s.data = append(s.data, &rec)

	return nil
}

// Recent retrieves the most recent entries ordered by request time DESC.
func (s *PredictionLogStore) Recent(_ context.Context, limit int) ([]*domain.PredictionLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.PredictionLog, 0, len(s.data))
	for _, l := range s.data {
		rec := *l
		rec.Predictions = append([]domain.PredictionPoint(nil), l.Predictions...)
		result = append(result, &rec)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].RequestTime.Equal(result[j].RequestTime) {
			return result[i].RequestTime.After(result[j].RequestTime)
		}
		return result[i].ID > result[j].ID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

// Count returns the number of stored entries.
func (s *PredictionLogStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
