package training

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"petrol-price-lab/internal/domain"
	"petrol-price-lab/internal/etl"
	"petrol-price-lab/internal/features"
	"petrol-price-lab/internal/model"
	"petrol-price-lab/internal/registry"
	"petrol-price-lab/internal/storage/memory"
)

type testEnv struct {
	workflow *Workflow
	prices   *memory.RawPetrolPriceStore
	exog     *memory.RawExogenousDataStore
	registry *registry.Service
	feats    *memory.FeatureStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	prices := memory.NewRawPetrolPriceStore()
	exog := memory.NewRawExogenousDataStore()
	feats := memory.NewFeatureStore()
	reg := registry.NewService(registry.Options{Store: memory.NewModelRegistryStore(), Logger: zerolog.Nop()})

	artifacts, err := model.NewArtifactStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewArtifactStore failed: %v", err)
	}

	return &testEnv{
		workflow: NewWorkflow(Options{
			Pipeline:  etl.NewPipeline(etl.Options{PriceStore: prices, ExogStore: exog, Logger: zerolog.Nop()}),
			Builder:   features.NewBuilder(features.Options{Store: feats, Logger: zerolog.Nop()}),
			Trainer:   &LeastSquaresTrainer{},
			Registry:  reg,
			Artifacts: artifacts,
			Logger:    zerolog.Nop(),
		}),
		prices:   prices,
		exog:     exog,
		registry: reg,
		feats:    feats,
	}
}

// seedSeries inserts length days of prices with matching exogenous rows.
func seedSeries(t *testing.T, env *testEnv, length int) {
	t.Helper()
	ctx := context.Background()
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < length; i++ {
		d := start.AddDate(0, 0, i)
		price := 100 + float64(i%10)
		if err := env.prices.Insert(ctx, &domain.RawPetrolPrice{Date: d, PetrolPrice: price, Source: domain.ProvenanceWebScraper}); err != nil {
			t.Fatalf("seed price failed: %v", err)
		}
		crude := 80 + float64(i%5)
		inr := 83 + float64(i%3)*0.1
		if err := env.exog.Insert(ctx, &domain.RawExogenousData{Date: d, CrudeOilPrice: &crude, InrUsd: &inr, Source: domain.ProvenanceMarketFeed}); err != nil {
			t.Fatalf("seed exog failed: %v", err)
		}
	}
}

func TestWorkflow_RunRegistersVersion(t *testing.T) {
	env := newTestEnv(t)
	seedSeries(t, env, 60)

	mv, err := env.workflow.Run(context.Background(), RunOptions{Category: domain.CategoryAll})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if mv.Version != "v1" {
		t.Errorf("first trained model must be v1, got %s", mv.Version)
	}
	if mv.TrainingSamples != 45 {
		t.Errorf("60 input days must yield 45 samples, got %d", mv.TrainingSamples)
	}

	// Feature rows were persisted as part of the run.
	rows, err := env.feats.GetByDateRange(context.Background(), time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("GetByDateRange failed: %v", err)
	}
	if len(rows) != 45 {
		t.Errorf("expected 45 persisted feature rows, got %d", len(rows))
	}

	// The registry agrees.
	latest, err := env.registry.Latest(context.Background())
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if latest.Version != "v1" {
		t.Errorf("registry latest = %s, want v1", latest.Version)
	}
}

func TestWorkflow_SequentialRunsIncrementVersion(t *testing.T) {
	env := newTestEnv(t)
	seedSeries(t, env, 60)
	ctx := context.Background()

	if _, err := env.workflow.Run(ctx, RunOptions{Category: domain.CategoryAll}); err != nil {
		t.Fatalf("first Run failed: %v", err)
	}
	mv, err := env.workflow.Run(ctx, RunOptions{Category: domain.CategoryAll})
	if err != nil {
		t.Fatalf("second Run failed: %v", err)
	}
	if mv.Version != "v2" {
		t.Errorf("second trained model must be v2, got %s", mv.Version)
	}
}

func TestWorkflow_DateBoundsRestrictTrainingWindow(t *testing.T) {
	env := newTestEnv(t)
	seedSeries(t, env, 120)

	mv, err := env.workflow.Run(context.Background(), RunOptions{
		Category: domain.CategoryAll,
		Start:    time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		End:      time.Date(2024, 6, 29, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// The 60-day window trims to 45 samples; unbounded would give 105.
	if mv.TrainingSamples != 45 {
		t.Errorf("bounded run must train on 45 samples, got %d", mv.TrainingSamples)
	}
}

func TestWorkflow_InsufficientData(t *testing.T) {
	env := newTestEnv(t)
	seedSeries(t, env, 20) // 5 feature rows, below the minimum

	_, err := env.workflow.Run(context.Background(), RunOptions{Category: domain.CategoryAll})
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestWorkflow_EmptyDataset(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.workflow.Run(context.Background(), RunOptions{Category: domain.CategoryAll})
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("empty dataset must report insufficient data, got %v", err)
	}
}
