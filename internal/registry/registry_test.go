package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"petrol-price-lab/internal/domain"
	"petrol-price-lab/internal/storage"
	"petrol-price-lab/internal/storage/memory"
)

func newTestService() *Service {
	return NewService(Options{
		Store:  memory.NewModelRegistryStore(),
		Logger: zerolog.Nop(),
	})
}

func register(t *testing.T, svc *Service, version string, metrics domain.EvalMetrics, createdAt time.Time) {
	t.Helper()
	err := svc.Register(context.Background(), &domain.ModelVersion{
		Version:         version,
		ModelPath:       "models/" + version + ".model.json",
		Metrics:         metrics,
		TrainingSamples: 50,
		DataSource:      domain.CategoryAll,
		CreatedAt:       createdAt,
	})
	if err != nil {
		t.Fatalf("Register(%s) failed: %v", version, err)
	}
}

func TestNextVersion_StartsAtOne(t *testing.T) {
	svc := newTestService()

	v, err := svc.NextVersion(context.Background())
	if err != nil {
		t.Fatalf("NextVersion failed: %v", err)
	}
	if v != "v1" {
		t.Errorf("expected v1 on empty registry, got %s", v)
	}
}

func TestNextVersion_Increments(t *testing.T) {
	svc := newTestService()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	register(t, svc, "v1", domain.EvalMetrics{}, base)
	register(t, svc, "v2", domain.EvalMetrics{}, base.Add(time.Hour))

	v, err := svc.NextVersion(context.Background())
	if err != nil {
		t.Fatalf("NextVersion failed: %v", err)
	}
	if v != "v3" {
		t.Errorf("expected v3, got %s", v)
	}
}

func TestNextVersion_NeverFillsGaps(t *testing.T) {
	svc := newTestService()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	register(t, svc, "v1", domain.EvalMetrics{}, base)
	register(t, svc, "v2", domain.EvalMetrics{}, base.Add(time.Hour))
	register(t, svc, "v3", domain.EvalMetrics{}, base.Add(2*time.Hour))

	// Deleting a middle version leaves a gap that is never filled: the
	// sequence continues past the highest existing version.
	if err := svc.Delete(context.Background(), "v2"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	v, err := svc.NextVersion(context.Background())
	if err != nil {
		t.Fatalf("NextVersion failed: %v", err)
	}
	if v != "v4" {
		t.Errorf("expected v4, got %s", v)
	}
}

func TestNextVersion_IgnoresUnparseableVersions(t *testing.T) {
	svc := newTestService()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	register(t, svc, "legacy-model", domain.EvalMetrics{}, base)

	v, err := svc.NextVersion(context.Background())
	if err != nil {
		t.Fatalf("NextVersion failed: %v", err)
	}
	if v != "v1" {
		t.Errorf("expected v1 when no version parses, got %s", v)
	}
}

func TestRegister_ExistingVersionUpdatesMetrics(t *testing.T) {
	svc := newTestService()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	register(t, svc, "v1", domain.EvalMetrics{RMSE: 5.0}, base)
	register(t, svc, "v1", domain.EvalMetrics{RMSE: 2.0}, base)

	mv, err := svc.Get(context.Background(), "v1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if mv.Metrics.RMSE != 2.0 {
		t.Errorf("expected updated RMSE 2.0, got %f", mv.Metrics.RMSE)
	}
}

func TestLatest_EmptyRegistry(t *testing.T) {
	svc := newTestService()

	_, err := svc.Latest(context.Background())
	if !errors.Is(err, ErrNoModels) {
		t.Errorf("expected ErrNoModels, got %v", err)
	}
}

func TestBest_PicksLowestMetric(t *testing.T) {
	svc := newTestService()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	register(t, svc, "v1", domain.EvalMetrics{RMSE: 5.0}, base)
	register(t, svc, "v2", domain.EvalMetrics{RMSE: 2.0}, base.Add(time.Hour))
	register(t, svc, "v3", domain.EvalMetrics{RMSE: 8.0}, base.Add(2*time.Hour))

	best, err := svc.Best(context.Background(), domain.MetricRMSE)
	if err != nil {
		t.Fatalf("Best failed: %v", err)
	}
	if best.Version != "v2" {
		t.Errorf("expected v2 with RMSE 2.0, got %s", best.Version)
	}
}

func TestBest_UnknownMetric(t *testing.T) {
	svc := newTestService()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	register(t, svc, "v1", domain.EvalMetrics{}, base)

	_, err := svc.Best(context.Background(), domain.Metric("accuracy"))
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for unknown metric, got %v", err)
	}
}

func TestBest_TieBreaksTowardNewer(t *testing.T) {
	svc := newTestService()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	register(t, svc, "v1", domain.EvalMetrics{MAE: 1.0}, base)
	register(t, svc, "v2", domain.EvalMetrics{MAE: 1.0}, base.Add(time.Hour))

	best, err := svc.Best(context.Background(), domain.MetricMAE)
	if err != nil {
		t.Fatalf("Best failed: %v", err)
	}
	if best.Version != "v2" {
		t.Errorf("tie must go to the newer version, got %s", best.Version)
	}
}

func TestGet_Missing(t *testing.T) {
	svc := newTestService()

	_, err := svc.Get(context.Background(), "v9")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
