package forecast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"petrol-price-lab/internal/storage/memory"
)

func newTestService(t *testing.T, f *testFixture) (*Service, *memory.PredictionLogStore) {
	t.Helper()

	logs := memory.NewPredictionLogStore()
	svc := NewService(ServiceOptions{
		Engine: f.engine,
		Logs:   logs,
		Logger: zerolog.Nop(),
		Now:    func() time.Time { return fixedNow },
	})
	return svc, logs
}

func TestForecast_LogsOnSuccess(t *testing.T) {
	f := newFixture(t)
	f.registerModel(t, "v1", 0)
	f.seedFeatures(t, 100)
	svc, logs := newTestService(t, f)

	result, err := svc.Forecast(context.Background(), Request{HorizonDays: 3})
	if err != nil {
		t.Fatalf("Forecast failed: %v", err)
	}

	if logs.Count() != 1 {
		t.Fatalf("expected 1 log entry, got %d", logs.Count())
	}
	recent, err := logs.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	entry := recent[0]
	if entry.ModelVersion != result.ModelVersion {
		t.Errorf("log version = %s, want %s", entry.ModelVersion, result.ModelVersion)
	}
	if entry.HorizonDays != 3 || len(entry.Predictions) != 3 {
		t.Errorf("log horizon mismatch: %+v", entry)
	}
	if !entry.RequestTime.Equal(fixedNow) {
		t.Errorf("log request time = %s, want %s", entry.RequestTime, fixedNow)
	}
}

func TestForecast_NoLogOnFailure(t *testing.T) {
	f := newFixture(t)
	// Registry left empty so the engine fails.
	f.seedFeatures(t, 100)
	svc, logs := newTestService(t, f)

	_, err := svc.Forecast(context.Background(), Request{HorizonDays: 3})
	if !errors.Is(err, ErrModelNotFound) {
		t.Fatalf("expected ErrModelNotFound, got %v", err)
	}

	if logs.Count() != 0 {
		t.Errorf("failed forecast must not be logged, got %d entries", logs.Count())
	}
}
