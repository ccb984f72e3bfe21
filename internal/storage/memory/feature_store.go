package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"petrol-price-lab/internal/domain"
	"petrol-price-lab/internal/storage"
)

// FeatureStore is an in-memory implementation of storage.FeatureStore.
type FeatureStore struct {
	mu   sync.RWMutex
	data map[time.Time]*domain.FeatureRow // keyed by date
}

// NewFeatureStore creates a new in-memory feature store.
func NewFeatureStore() *FeatureStore {
	return &FeatureStore{
		data: make(map[time.Time]*domain.FeatureRow),
	}
}

// Compile-time interface check.
var _ storage.FeatureStore = (*FeatureStore)(nil)

// Upsert writes rows keyed by date. Existing dates are replaced, new
// dates inserted; a date never appears twice.
func (s *FeatureStore) Upsert(_ context.Context, rows []*domain.FeatureRow) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range rows {
		if r == nil {
			return 0, storage.ErrInvalidInput
		}
		rec := copyFeatureRow(r)
		rec.Date = domain.Day(r.Date)
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = time.Now().UTC()
		}
		s.data[rec.Date] = rec
	}

	return len(rows), nil
}

// GetByDateRange retrieves rows within [start, end], ordered by date ASC.
func (s *FeatureStore) GetByDateRange(_ context.Context, start, end time.Time) ([]*domain.FeatureRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.FeatureRow
	for _, r := range s.data {
		if inRange(r.Date, start, end) {
			result = append(result, copyFeatureRow(r))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})

	return result, nil
}

// Latest retrieves the single most recent row by date.
func (s *FeatureStore) Latest(_ context.Context) (*domain.FeatureRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.FeatureRow
	for _, r := range s.data {
		if latest == nil || r.Date.After(latest.Date) {
			latest = r
		}
	}

	if latest == nil {
		return nil, storage.ErrNotFound
	}

	return copyFeatureRow(latest), nil
}

func copyFeatureRow(r *domain.FeatureRow) *domain.FeatureRow {
	rec := *r
	rec.CrudeOilPrice = copyFloat(r.CrudeOilPrice)
	rec.InrUsd = copyFloat(r.InrUsd)
	return &rec
}
