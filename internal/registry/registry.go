// Package registry manages the append-only catalog of trained model
// versions and their evaluation metrics.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"petrol-price-lab/internal/domain"
	"petrol-price-lab/internal/storage"
)

// ErrNoModels is returned when the registry holds no versions at all.
var ErrNoModels = errors.New("no models registered")

// Service wraps the registry store with versioning policy.
type Service struct {
	store  storage.ModelRegistryStore
	logger zerolog.Logger
}

// Options contains configuration for creating a Service.
type Options struct {
	Store  storage.ModelRegistryStore
	Logger zerolog.Logger
}

// NewService creates a new registry service.
func NewService(opts Options) *Service {
	return &Service{
		store:  opts.Store,
		logger: opts.Logger.With().Str("component", "registry").Logger(),
	}
}

// versionNumber parses the numeric part of a "v<N>" version identifier.
func versionNumber(version string) (int, bool) {
	rest, ok := strings.CutPrefix(version, "v")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// NextVersion returns the identifier one past the highest registered
// version. Deleted versions are never reused: the sequence only grows.
func (s *Service) NextVersion(ctx context.Context) (string, error) {
	ids, err := s.store.ListVersionIDs(ctx)
	if err != nil {
		return "", fmt.Errorf("list versions: %w", err)
	}

	max := 0
	for _, id := range ids {
		if n, ok := versionNumber(id); ok && n > max {
			max = n
		}
	}
	return fmt.Sprintf("v%d", max+1), nil
}

// Register records a new model version. Registering an existing version
// with fresh metrics updates the metrics in place instead of failing, so
// re-evaluation stays idempotent.
func (s *Service) Register(ctx context.Context, mv *domain.ModelVersion) error {
	err := s.store.Insert(ctx, mv)
	if err == nil {
		s.logger.Info().Str("version", mv.Version).Int("training_samples", mv.TrainingSamples).Msg("registered model version")
		return nil
	}
	if !errors.Is(err, storage.ErrDuplicateKey) {
		return fmt.Errorf("register model version: %w", err)
	}

	if err := s.store.UpsertMetrics(ctx, mv.Version, mv.Metrics); err != nil {
		return fmt.Errorf("update model metrics: %w", err)
	}
	s.logger.Info().Str("version", mv.Version).Msg("updated metrics for existing model version")
	return nil
}

// Latest returns the most recently registered version.
func (s *Service) Latest(ctx context.Context) (*domain.ModelVersion, error) {
	mv, err := s.store.Latest(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNoModels
		}
		return nil, fmt.Errorf("load latest model: %w", err)
	}
	return mv, nil
}

// Get returns one version by identifier.
func (s *Service) Get(ctx context.Context, version string) (*domain.ModelVersion, error) {
	mv, err := s.store.GetByVersion(ctx, version)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("model version %q: %w", version, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("load model version: %w", err)
	}
	return mv, nil
}

// Best returns the version with the lowest value of the given metric.
// All supported metrics are lower-is-better; R2 is tracked for reporting
// but never used for selection. Ties break toward the newer version.
func (s *Service) Best(ctx context.Context, metric domain.Metric) (*domain.ModelVersion, error) {
	if !metric.IsValid() {
		return nil, fmt.Errorf("%w: unknown metric %q", storage.ErrInvalidInput, metric)
	}

	all, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	if len(all) == 0 {
		return nil, ErrNoModels
	}

	// ListAll is newest-first, so the first strict improvement wins ties
	// toward recency.
	best := all[0]
	for _, mv := range all[1:] {
		if mv.Metrics.Value(metric) < best.Metrics.Value(metric) {
			best = mv
		}
	}
	return best, nil
}

// ListAll returns every version, newest first.
func (s *Service) ListAll(ctx context.Context) ([]*domain.ModelVersion, error) {
	all, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return all, nil
}

// Delete removes a version from the catalog. Numbering follows the
// surviving rows: gaps below the current maximum stay open, but deleting
// the newest version lets NextVersion hand out its number again.
func (s *Service) Delete(ctx context.Context, version string) error {
	if err := s.store.Delete(ctx, version); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("model version %q: %w", version, storage.ErrNotFound)
		}
		return fmt.Errorf("delete model version: %w", err)
	}
	s.logger.Info().Str("version", version).Msg("deleted model version")
	return nil
}
