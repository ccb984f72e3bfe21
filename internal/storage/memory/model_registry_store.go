package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"petrol-price-lab/internal/domain"
	"petrol-price-lab/internal/storage"
)

// ModelRegistryStore is an in-memory implementation of storage.ModelRegistryStore.
type ModelRegistryStore struct {
	mu     sync.RWMutex
	data   map[string]*domain.ModelVersion // keyed by version id
	nextID int64
}

// NewModelRegistryStore creates a new in-memory model registry store.
func NewModelRegistryStore() *ModelRegistryStore {
	return &ModelRegistryStore{
		data:   make(map[string]*domain.ModelVersion),
		nextID: 1,
	}
}

// Compile-time interface check.
var _ storage.ModelRegistryStore = (*ModelRegistryStore)(nil)

// Insert adds a new model version. Returns ErrDuplicateKey if the version exists.
func (s *ModelRegistryStore) Insert(_ context.Context, m *domain.ModelVersion) error {
	if m == nil || m.Version == "" || m.ModelPath == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[m.Version]; exists {
		return storage.ErrDuplicateKey
	}

	rec := *m
	rec.ID = s.nextID
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	s.nextID++
	s.data[m.Version] = &rec

	return nil
}

// UpsertMetrics overwrites the metric snapshot for an existing version.
func (s *ModelRegistryStore) UpsertMetrics(_ context.Context, version string, metrics domain.EvalMetrics) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.data[version]
	if !exists {
		return storage.ErrNotFound
	}
	rec.Metrics = metrics

	return nil
}

// GetByVersion retrieves a model by version id.
func (s *ModelRegistryStore) GetByVersion(_ context.Context, version string) (*domain.ModelVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.data[version]
	if !exists {
		return nil, storage.ErrNotFound
	}

	out := *rec
	return &out, nil
}

// Latest retrieves the row with the most recent creation time.
func (s *ModelRegistryStore) Latest(_ context.Context) (*domain.ModelVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.ModelVersion
	for _, m := range s.data {
		if latest == nil || m.CreatedAt.After(latest.CreatedAt) ||
			(m.CreatedAt.Equal(latest.CreatedAt) && m.ID > latest.ID) {
			latest = m
		}
	}

	if latest == nil {
		return nil, storage.ErrNotFound
	}

	out := *latest
	return &out, nil
}

// ListAll retrieves all versions ordered by creation time DESC.
func (s *ModelRegistryStore) ListAll(_ context.Context) ([]*domain.ModelVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.ModelVersion, 0, len(s.data))
	for _, m := range s.data {
		rec := *m
		result = append(result, &rec)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	return result, nil
}

// ListVersionIDs retrieves every version id, unordered.
func (s *ModelRegistryStore) ListVersionIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for v := range s.data {
		ids = append(ids, v)
	}

	return ids, nil
}

// Delete removes a version from the registry.
func (s *ModelRegistryStore) Delete(_ context.Context, version string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[version]; !exists {
		return storage.ErrNotFound
	}
	delete(s.data, version)

	return nil
}
