package features

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"petrol-price-lab/internal/domain"
	"petrol-price-lab/internal/storage/memory"
)

func newTestBuilder() (*Builder, *memory.FeatureStore) {
	store := memory.NewFeatureStore()
	b := NewBuilder(Options{Store: store, Logger: zerolog.Nop()})
	return b, store
}

// series builds a daily price series of the given length where the price
// on day i is base+i.
func series(length int, base float64) []domain.MergedRow {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]domain.MergedRow, length)
	for i := range rows {
		rows[i] = domain.MergedRow{
			Date:        start.AddDate(0, 0, i),
			PetrolPrice: base + float64(i),
		}
	}
	return rows
}

func TestBuild_TrimLaw(t *testing.T) {
	b, _ := newTestBuilder()

	cases := []struct {
		length int
		want   int
	}{
		{0, 0},
		{15, 0},
		{16, 1},
		{20, 5},
		{100, 85},
	}
	for _, tc := range cases {
		got := len(b.Build(series(tc.length, 100)))
		if got != tc.want {
			t.Errorf("length %d: expected %d feature rows, got %d", tc.length, tc.want, got)
		}
	}
}

func TestBuild_LagAndTargetValues(t *testing.T) {
	b, _ := newTestBuilder()

	rows := b.Build(series(20, 100))
	if len(rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(rows))
	}

	// First feature row sits at index 14 of the input, price 114.
	first := rows[0]
	if first.PetrolPrice != 114 {
		t.Errorf("PetrolPrice = %f, want 114", first.PetrolPrice)
	}
	if first.Lag1 != 113 || first.Lag2 != 112 || first.Lag7 != 107 || first.Lag14 != 100 {
		t.Errorf("lags wrong: %f %f %f %f", first.Lag1, first.Lag2, first.Lag7, first.Lag14)
	}
	// Rolling mean over prices 108..114 is 111.
	if first.Rolling7 != 111 {
		t.Errorf("Rolling7 = %f, want 111", first.Rolling7)
	}
	if first.Target != 115 {
		t.Errorf("Target = %f, want 115", first.Target)
	}
}

func TestBuild_ExogenousPassThrough(t *testing.T) {
	b, _ := newTestBuilder()

	rows := series(20, 100)
	crude := 82.0
	rows[14].CrudeOilPrice = &crude

	out := b.Build(rows)
	if out[0].CrudeOilPrice == nil || *out[0].CrudeOilPrice != 82.0 {
		t.Error("exogenous value must pass through")
	}
	if out[1].CrudeOilPrice != nil {
		t.Error("missing exogenous values must stay nil, not be trimmed")
	}
}

func TestVector_ColumnOrder(t *testing.T) {
	fr := &domain.FeatureRow{
		PetrolPrice: 1, Lag1: 2, Lag2: 3, Lag7: 4, Lag14: 5, Rolling7: 6,
		Target: 99,
	}
	v := fr.Vector(80.0, 83.0)

	if len(v) != len(domain.FeatureColumns) {
		t.Fatalf("vector length %d, want %d", len(v), len(domain.FeatureColumns))
	}
	want := []float64{1, 2, 3, 4, 5, 6, 80.0, 83.0}
	for i := range want {
		if v[i] != want[i] {
			t.Errorf("v[%d] (%s) = %f, want %f", i, domain.FeatureColumns[i], v[i], want[i])
		}
	}
}

func TestPersistAndLoad(t *testing.T) {
	b, _ := newTestBuilder()
	ctx := context.Background()

	rows := b.Build(series(20, 100))
	n, err := b.Persist(ctx, rows)
	if err != nil {
		t.Fatalf("Persist failed: %v", err)
	}
	if n != 5 {
		t.Errorf("expected 5 persisted rows, got %d", n)
	}

	loaded, err := b.Load(ctx, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 5 {
		t.Errorf("expected 5 loaded rows, got %d", len(loaded))
	}
}

func TestToTrainingArrays_SkipsSparseRows(t *testing.T) {
	crude, inr := 82.0, 83.0
	rows := []*domain.FeatureRow{
		{PetrolPrice: 100, CrudeOilPrice: &crude, InrUsd: &inr, Target: 101},
		{PetrolPrice: 101, Target: 102}, // no exogenous data
		{PetrolPrice: 102, CrudeOilPrice: &crude, InrUsd: &inr, Target: 103},
	}

	inputs, targets, _ := ToTrainingArrays(rows)
	if len(inputs) != 2 || len(targets) != 2 {
		t.Fatalf("expected 2 dense samples, got %d/%d", len(inputs), len(targets))
	}
	if targets[0] != 101 || targets[1] != 103 {
		t.Errorf("unexpected targets: %v", targets)
	}
}

func TestToTrainingArrays_ColumnNames(t *testing.T) {
	crude, inr := 82.0, 83.0
	rows := []*domain.FeatureRow{
		{PetrolPrice: 100, CrudeOilPrice: &crude, InrUsd: &inr, Target: 101},
	}

	inputs, _, names := ToTrainingArrays(rows)
	if len(names) != len(inputs[0]) {
		t.Fatalf("column names %d, matrix width %d", len(names), len(inputs[0]))
	}
	for i, n := range domain.FeatureColumns {
		if names[i] != n {
			t.Errorf("names[%d] = %s, want %s", i, names[i], n)
		}
	}
}
