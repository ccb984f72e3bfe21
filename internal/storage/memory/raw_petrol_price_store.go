package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"petrol-price-lab/internal/domain"
	"petrol-price-lab/internal/storage"
)

// RawPetrolPriceStore is an in-memory implementation of storage.RawPetrolPriceStore.
type RawPetrolPriceStore struct {
	mu     sync.RWMutex
	data   map[time.Time]*domain.RawPetrolPrice // keyed by calendar date
	nextID int64
}

// NewRawPetrolPriceStore creates a new in-memory raw petrol price store.
func NewRawPetrolPriceStore() *RawPetrolPriceStore {
	return &RawPetrolPriceStore{
		data:   make(map[time.Time]*domain.RawPetrolPrice),
		nextID: 1,
	}
}

// Compile-time interface check.
var _ storage.RawPetrolPriceStore = (*RawPetrolPriceStore)(nil)

// Insert adds a new price point. Returns ErrDuplicateKey if the date exists.
// The map key acts as the uniqueness constraint: check and insert happen
// under one lock, so concurrent writers cannot both pass.
func (s *RawPetrolPriceStore) Insert(_ context.Context, p *domain.RawPetrolPrice) error {
	if p == nil || p.PetrolPrice <= 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := domain.Day(p.Date)
	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	rec := *p
	rec.ID = s.nextID
	rec.Date = key
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	s.nextID++
	s.data[key] = &rec

	return nil
}

// GetByDateRange retrieves records within [start, end], ordered by date ASC.
func (s *RawPetrolPriceStore) GetByDateRange(_ context.Context, start, end time.Time) ([]*domain.RawPetrolPrice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.RawPetrolPrice
	for _, p := range s.data {
		if inRange(p.Date, start, end) {
			rec := *p
			result = append(result, &rec)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})

	return result, nil
}

// ExistingDates returns the set of dates already present within [start, end].
func (s *RawPetrolPriceStore) ExistingDates(_ context.Context, start, end time.Time) (map[time.Time]struct{}, error) {
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

// inRange reports whether d falls within [start, end]. Zero bounds are open.
func inRange(d, start, end time.Time) bool {
	if !start.IsZero() && d.Before(start) {
		return false
	}
	if !end.IsZero() && d.After(end) {
		return false
	}
	return true
}
