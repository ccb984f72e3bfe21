// Package ingestion writes deduplicated raw observations into storage and
// computes missing-date gaps for backfill. Uniqueness-by-date is enforced
// by the storage layer's atomic insert-if-absent, not by this service.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"petrol-price-lab/internal/domain"
	"petrol-price-lab/internal/observability"
	"petrol-price-lab/internal/storage"
)

// ErrValidation is returned for malformed input: missing required columns,
// non-positive prices, unparseable dates. The batch is rejected before any
// row is written.
var ErrValidation = errors.New("validation failed")

// DataKind selects which raw table a batch targets.
type DataKind string

const (
	KindPetrol    DataKind = "petrol"
	KindExogenous DataKind = "exogenous"
)

// IsValid checks if the kind is a known value.
func (k DataKind) IsValid() bool {
	return k == KindPetrol || k == KindExogenous
}

// Service ingests raw observations with deduplication.
type Service struct {
	priceStore storage.RawPetrolPriceStore
	exogStore  storage.RawExogenousDataStore
	metrics    *observability.Metrics
	logger     zerolog.Logger
}

// Options contains configuration for creating a Service.
type Options struct {
	PriceStore storage.RawPetrolPriceStore
	ExogStore  storage.RawExogenousDataStore
	Metrics    *observability.Metrics
	Logger     zerolog.Logger
}

// NewService creates a new ingestion service.
func NewService(opts Options) *Service {
	return &Service{
		priceStore: opts.PriceStore,
		exogStore:  opts.ExogStore,
		metrics:    opts.Metrics,
		logger:     opts.Logger.With().Str("component", "ingestion").Logger(),
	}
}

// IngestPricePoint inserts one petrol price observation. Returns
// (false, nil) without side effects if a record for the date already
// exists; duplicates are the dedup mechanism, not an error.
func (s *Service) IngestPricePoint(ctx context.Context, date time.Time, price float64, source domain.Provenance) (bool, error) {
	if price <= 0 {
		return false, fmt.Errorf("%w: petrol price must be positive, got %v", ErrValidation, price)
	}

	err := s.priceStore.Insert(ctx, &domain.RawPetrolPrice{
		Date:        date,
		PetrolPrice: price,
		Source:      source,
	})
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			s.logger.Debug().Str("date", domain.FormatDate(date)).Msg("petrol price already present, skipping")
			return false, nil
		}
		return false, fmt.Errorf("ingest petrol price: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RawPointsIngested.WithLabelValues(string(KindPetrol)).Inc()
	}
	s.logger.Info().Str("date", domain.FormatDate(date)).Float64("price", price).Str("source", source.String()).Msg("ingested petrol price")

	return true, nil
}

// IngestExogenousPoint inserts one exogenous observation. Either signal
// may be nil. Returns (false, nil) if the date already exists.
func (s *Service) IngestExogenousPoint(ctx context.Context, date time.Time, crudeOil, inrUsd *float64, source domain.Provenance) (bool, error) {
	if crudeOil == nil && inrUsd == nil {
		return false, fmt.Errorf("%w: exogenous row needs at least one signal", ErrValidation)
	}

	err := s.exogStore.Insert(ctx, &domain.RawExogenousData{
		Date:          date,
		CrudeOilPrice: crudeOil,
		InrUsd:        inrUsd,
		Source:        source,
	})
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			s.logger.Debug().Str("date", domain.FormatDate(date)).Msg("exogenous data already present, skipping")
			return false, nil
		}
		return false, fmt.Errorf("ingest exogenous data: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RawPointsIngested.WithLabelValues(string(KindExogenous)).Inc()
	}
	s.logger.Info().Str("date", domain.FormatDate(date)).Str("source", source.String()).Msg("ingested exogenous data")

	return true, nil
}

// FindMissingDates computes the set difference between the full calendar
// range [start, end] and the dates already present, ordered ascending.
// Used to drive backfill.
func (s *Service) FindMissingDates(ctx context.Context, kind DataKind, start, end time.Time) ([]time.Time, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown data kind %q", ErrValidation, kind)
	}

	start = domain.Day(start)
	end = domain.Day(end)
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end date before start date", ErrValidation)
	}

	var (
		existing map[time.Time]struct{}
		err      error
	)
	switch kind {
	case KindPetrol:
		existing, err = s.priceStore.ExistingDates(ctx, start, end)
	case KindExogenous:
		existing, err = s.exogStore.ExistingDates(ctx, start, end)
	}
	if err != nil {
		return nil, fmt.Errorf("load existing dates: %w", err)
	}

	var missing []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if _, ok := existing[d]; !ok {
			missing = append(missing, d)
		}
	}

	s.logger.Info().Str("kind", string(kind)).Int("missing", len(missing)).Msg("computed missing dates")

	return missing, nil
}

// BatchResult reports the outcome of a batch ingestion for user-facing
// upload feedback.
type BatchResult struct {
	Inserted   int
	Duplicates int
	Total      int
}

// IngestBatch applies point ingestion row-by-row, counting inserts and
// duplicates. All rows are validated before any write so a malformed
// batch is rejected whole.
func (s *Service) IngestBatch(ctx context.Context, rows []UploadRow, kind DataKind) (BatchResult, error) {
	result := BatchResult{Total: len(rows)}

	if !kind.IsValid() {
		return result, fmt.Errorf("%w: unknown data kind %q", ErrValidation, kind)
	}
	for i := range rows {
		if err := rows[i].validate(kind); err != nil {
			return result, fmt.Errorf("row %d: %w", i, err)
		}
	}

	for i := range rows {
		row := &rows[i]
		source := row.Source
		if source == "" {
			source = domain.ProvenanceFileUpload
		}

		var (
			inserted bool
			err      error
		)
		switch kind {
		case KindPetrol:
			inserted, err = s.IngestPricePoint(ctx, row.Date, *row.PetrolPrice, source)
		case KindExogenous:
			inserted, err = s.IngestExogenousPoint(ctx, row.Date, row.CrudeOilPrice, row.InrUsd, source)
		}
		if err != nil {
			return result, err
		}

		if inserted {
			result.Inserted++
		} else {
			result.Duplicates++
		}
	}

	s.logger.Info().
		Str("kind", string(kind)).
		Int("total", result.Total).
		Int("inserted", result.Inserted).
		Int("duplicates", result.Duplicates).
		Msg("batch ingestion complete")

	return result, nil
}
