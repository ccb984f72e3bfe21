// Package etl merges raw petrol and exogenous observations into a clean
// daily series ready for feature engineering.
package etl

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"petrol-price-lab/internal/domain"
	"petrol-price-lab/internal/observability"
	"petrol-price-lab/internal/storage"
)

// Pipeline extracts and cleans the merged training series.
type Pipeline struct {
	priceStore storage.RawPetrolPriceStore
	exogStore  storage.RawExogenousDataStore
	metrics    *observability.Metrics
	logger     zerolog.Logger
}

// Options contains configuration for creating a Pipeline.
type Options struct {
	PriceStore storage.RawPetrolPriceStore
	ExogStore  storage.RawExogenousDataStore
	Metrics    *observability.Metrics
	Logger     zerolog.Logger
}

// NewPipeline creates a new ETL pipeline.
func NewPipeline(opts Options) *Pipeline {
	return &Pipeline{
		priceStore: opts.PriceStore,
		exogStore:  opts.ExogStore,
		metrics:    opts.Metrics,
		logger:     opts.Logger.With().Str("component", "etl").Logger(),
	}
}

// Extract left-joins petrol prices against exogenous data by date. Every
// petrol row survives; exogenous signals attach where a matching date
// exists and stay nil otherwise. The category filter restricts which
// provenances contribute on both sides. Zero start or end bounds are
// unbounded.
func (p *Pipeline) Extract(ctx context.Context, category domain.SourceCategory, start, end time.Time) ([]domain.MergedRow, error) {
	prices, err := p.priceStore.GetByDateRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("load petrol prices: %w", err)
	}

	exog, err := p.exogStore.GetByDateRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("load exogenous data: %w", err)
	}

	exogByDate := make(map[time.Time]*domain.RawExogenousData, len(exog))
	for _, e := range exog {
		if !category.Matches(e.Source) {
			continue
		}
		exogByDate[domain.Day(e.Date)] = e
	}

	var rows []domain.MergedRow
	for _, r := range prices {
		if !category.Matches(r.Source) {
			continue
		}
		row := domain.MergedRow{
			Date:        domain.Day(r.Date),
			PetrolPrice: r.PetrolPrice,
			Source:      r.Source,
		}
		if e, ok := exogByDate[row.Date]; ok {
			row.CrudeOilPrice = e.CrudeOilPrice
			row.InrUsd = e.InrUsd
		}
		rows = append(rows, row)
	}

	p.logger.Info().
		Str("category", category.String()).
		Int("petrol_rows", len(prices)).
		Int("exog_rows", len(exog)).
		Int("merged_rows", len(rows)).
		Msg("extracted merged series")

	return rows, nil
}

// CleanOptions tunes the cleaning stage.
type CleanOptions struct {
	// RemoveOutliers strips petrol price outliers outside the IQR fences
	// after forward-filling.
	RemoveOutliers bool
}

// Clean deduplicates by date keeping the first occurrence, sorts the
// series ascending, forward-fills exogenous gaps, and optionally strips
// price outliers. Leading gaps before the first observed value stay nil.
// Fill runs first so an outlier row's exogenous values still propagate
// to the rows after it.
func (p *Pipeline) Clean(rows []domain.MergedRow, opts CleanOptions) []domain.MergedRow {
	seen := make(map[time.Time]struct{}, len(rows))
	cleaned := make([]domain.MergedRow, 0, len(rows))
	for _, r := range rows {
		d := domain.Day(r.Date)
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		r.Date = d
		cleaned = append(cleaned, r)
	}

	sort.Slice(cleaned, func(i, j int) bool {
		return cleaned[i].Date.Before(cleaned[j].Date)
	})

	forwardFill(cleaned)

	if opts.RemoveOutliers {
		before := len(cleaned)
		cleaned = removeOutliers(cleaned)
		if dropped := before - len(cleaned); dropped > 0 {
			p.logger.Info().Int("dropped", dropped).Msg("removed price outliers")
		}
	}

	return cleaned
}

// Run extracts and cleans in one step. An empty result is not an error;
// callers decide whether downstream stages can proceed.
func (p *Pipeline) Run(ctx context.Context, category domain.SourceCategory, start, end time.Time, opts CleanOptions) ([]domain.MergedRow, error) {
	rows, err := p.Extract(ctx, category, start, end)
	if err != nil {
		if p.metrics != nil {
			p.metrics.PipelineRuns.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	cleaned := p.Clean(rows, opts)
	if len(cleaned) == 0 {
		p.logger.Warn().Str("category", category.String()).Msg("pipeline produced no rows")
	}

	if p.metrics != nil {
		p.metrics.PipelineRuns.WithLabelValues("ok").Inc()
	}

	return cleaned, nil
}

// forwardFill propagates the last seen exogenous values into later nil
// cells, in place.
func forwardFill(rows []domain.MergedRow) {
	var lastCrude, lastInr *float64
	for i := range rows {
		if rows[i].CrudeOilPrice != nil {
			lastCrude = rows[i].CrudeOilPrice
		} else if lastCrude != nil {
			v := *lastCrude
			rows[i].CrudeOilPrice = &v
		}
		if rows[i].InrUsd != nil {
			lastInr = rows[i].InrUsd
		} else if lastInr != nil {
			v := *lastInr
			rows[i].InrUsd = &v
		}
	}
}

// removeOutliers drops rows whose petrol price falls outside the
// interquartile fences Q1-1.5*IQR and Q3+1.5*IQR.
func removeOutliers(rows []domain.MergedRow) []domain.MergedRow {
	if len(rows) < 4 {
		return rows
	}

	prices := make([]float64, len(rows))
	for i, r := range rows {
		prices[i] = r.PetrolPrice
	}
	sort.Float64s(prices)

	q1 := quantile(prices, 0.25)
	q3 := quantile(prices, 0.75)
	iqr := q3 - q1
	lo := q1 - 1.5*iqr
	hi := q3 + 1.5*iqr

	kept := rows[:0]
	for _, r := range rows {
		if r.PetrolPrice < lo || r.PetrolPrice > hi {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

// quantile computes the q-th quantile of a sorted slice with linear
// interpolation between adjacent order statistics.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(pos)
	frac := pos - float64(lo)
	if lo+1 >= len(sorted) {
		return sorted[lo]
	}
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
