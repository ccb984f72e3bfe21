// Package features derives supervised training rows from the cleaned
// daily series: lagged prices, a trailing rolling mean, and a next-day
// target.
package features

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"petrol-price-lab/internal/domain"
	"petrol-price-lab/internal/observability"
	"petrol-price-lab/internal/storage"
)

// Lag offsets and rolling window applied to the petrol price series.
const (
	Lag1  = 1
	Lag2  = 2
	Lag7  = 7
	Lag14 = 14

	RollingWindow = 7
)

// warmup is the longest lookback any feature needs. Rows before it, and
// the last row whose target falls past the series end, are trimmed.
const warmup = Lag14

// Builder computes and persists feature rows.
type Builder struct {
	store   storage.FeatureStore
	metrics *observability.Metrics
	logger  zerolog.Logger
}

// Options contains configuration for creating a Builder.
type Options struct {
	Store   storage.FeatureStore
	Metrics *observability.Metrics
	Logger  zerolog.Logger
}

// NewBuilder creates a new feature builder.
func NewBuilder(opts Options) *Builder {
	return &Builder{
		store:   opts.Store,
		metrics: opts.Metrics,
		logger:  opts.Logger.With().Str("component", "features").Logger(),
	}
}

// Build derives feature rows from a cleaned, date-ascending series. A
// series of L rows yields max(0, L-15) feature rows: the first 14 lack a
// full lag window and the last lacks a next-day target. Exogenous values
// pass through untouched and may stay nil.
func (b *Builder) Build(rows []domain.MergedRow) []*domain.FeatureRow {
	if len(rows) <= warmup+1 {
		return nil
	}

	out := make([]*domain.FeatureRow, 0, len(rows)-warmup-1)
	for i := warmup; i < len(rows)-1; i++ {
		fr := &domain.FeatureRow{
			Date:          rows[i].Date,
			PetrolPrice:   rows[i].PetrolPrice,
			Lag1:          rows[i-Lag1].PetrolPrice,
			Lag2:          rows[i-Lag2].PetrolPrice,
			Lag7:          rows[i-Lag7].PetrolPrice,
			Lag14:         rows[i-Lag14].PetrolPrice,
			Rolling7:      rollingMean(rows, i),
			CrudeOilPrice: rows[i].CrudeOilPrice,
			InrUsd:        rows[i].InrUsd,
			Target:        rows[i+1].PetrolPrice,
		}
		out = append(out, fr)
	}

	if b.metrics != nil {
		b.metrics.FeatureRowsBuilt.Add(float64(len(out)))
	}
	b.logger.Info().Int("input_rows", len(rows)).Int("feature_rows", len(out)).Msg("built feature rows")

	return out
}

// rollingMean averages the trailing RollingWindow prices ending at i,
// inclusive.
func rollingMean(rows []domain.MergedRow, i int) float64 {
	var sum float64
	for j := i - RollingWindow + 1; j <= i; j++ {
		sum += rows[j].PetrolPrice
	}
	return sum / RollingWindow
}

// Persist upserts rows by date so repeated pipeline runs replace rather
// than duplicate.
func (b *Builder) Persist(ctx context.Context, rows []*domain.FeatureRow) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	n, err := b.store.Upsert(ctx, rows)
	if err != nil {
		return 0, fmt.Errorf("persist feature rows: %w", err)
	}
	b.logger.Info().Int("rows", n).Msg("persisted feature rows")
	return n, nil
}

// Load reads stored feature rows ordered by date ascending. Zero bounds
// mean unbounded.
func (b *Builder) Load(ctx context.Context, start, end time.Time) ([]*domain.FeatureRow, error) {
	rows, err := b.store.GetByDateRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("load feature rows: %w", err)
	}
	return rows, nil
}

// ToTrainingArrays converts feature rows into an input matrix, target
// vector and the column names in matrix order. Rows missing either
// exogenous value are skipped so the matrix is fully dense.
func ToTrainingArrays(rows []*domain.FeatureRow) ([][]float64, []float64, []string) {
	inputs := make([][]float64, 0, len(rows))
	targets := make([]float64, 0, len(rows))
	for _, r := range rows {
		if r.CrudeOilPrice == nil || r.InrUsd == nil {
			continue
		}
		inputs = append(inputs, r.Vector(*r.CrudeOilPrice, *r.InrUsd))
		targets = append(targets, r.Target)
	}
	return inputs, targets, domain.FeatureColumns
}
