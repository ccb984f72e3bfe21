package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"petrol-price-lab/internal/domain"
	"petrol-price-lab/internal/storage"
)

// RawExogenousDataStore is an in-memory implementation of storage.RawExogenousDataStore.
type RawExogenousDataStore struct {
	mu     sync.RWMutex
	data   map[time.Time]*domain.RawExogenousData
	nextID int64
}

// NewRawExogenousDataStore creates a new in-memory exogenous data store.
func NewRawExogenousDataStore() *RawExogenousDataStore {
	return &RawExogenousDataStore{
		data:   make(map[time.Time]*domain.RawExogenousData),
		nextID: 1,
	}
}

// Compile-time interface check.
var _ storage.RawExogenousDataStore = (*RawExogenousDataStore)(nil)

// Insert adds a new exogenous point. Returns ErrDuplicateKey if the date exists.
func (s *RawExogenousDataStore) Insert(_ context.Context, e *domain.RawExogenousData) error {
	if e == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := domain.Day(e.Date)
	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	rec := *e
	rec.ID = s.nextID
	rec.Date = key
	rec.CrudeOilPrice = copyFloat(e.CrudeOilPrice)
	rec.InrUsd = copyFloat(e.InrUsd)
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	s.nextID++
	s.data[key] = &rec

	return nil
}

// GetByDateRange retrieves records within [start, end], ordered by date ASC.
func (s *RawExogenousDataStore) GetByDateRange(_ context.Context, start, end time.Time) ([]*domain.RawExogenousData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.RawExogenousData
	for _, e := range s.data {
		if inRange(e.Date, start, end) {
			rec := *e
			rec.CrudeOilPrice = copyFloat(e.CrudeOilPrice)
			rec.InrUsd = copyFloat(e.InrUsd)
			result = append(result, &rec)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})

	return result, nil
}

// ExistingDates returns the set of dates already present within [start, end].
func (s *RawExogenousDataStore) ExistingDates(_ context.Context, start, end time.Time) (map[time.Time]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dates := make(map[time.Time]struct{})
	for key := range s.data {
		if inRange(key, start, end) {
			dates[key] = struct{}{}
		}
	}

	return dates, nil
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
