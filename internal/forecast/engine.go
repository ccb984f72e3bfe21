// Package forecast produces recursive multi-step price forecasts from a
// registered model and the most recent feature state.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"petrol-price-lab/internal/domain"
	"petrol-price-lab/internal/model"
	"petrol-price-lab/internal/registry"
	"petrol-price-lab/internal/storage"
)

var (
	// ErrModelNotFound is returned when no usable model version exists
	// for the request.
	ErrModelNotFound = errors.New("model not found")

	// ErrInvalidDateRange is returned when the requested end date does
	// not lie in the future.
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrNoFeatures is returned when no feature state exists to seed the
	// recursion.
	ErrNoFeatures = errors.New("no feature data available")
)

// Fallbacks and sanity bounds applied during recursion.
const (
	DefaultCrudeOilPrice = 80.0
	DefaultInrUsd        = 83.0

	// Predictions are clamped to a plausible retail price band before
	// being recorded and fed back into the recursion.
	MinPlausiblePrice = 90.0
	MaxPlausiblePrice = 150.0
)

// Engine runs the forecast recursion. The clock is injected so horizon
// arithmetic is testable.
type Engine struct {
	registry  *registry.Service
	artifacts *model.ArtifactStore
	features  storage.FeatureStore
	now       func() time.Time
}

// EngineOptions contains configuration for creating an Engine.
type EngineOptions struct {
	Registry  *registry.Service
	Artifacts *model.ArtifactStore
	Features  storage.FeatureStore
	Now       func() time.Time
}

// NewEngine creates a new forecast engine.
func NewEngine(opts EngineOptions) *Engine {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		registry:  opts.Registry,
		artifacts: opts.Artifacts,
		features:  opts.Features,
		now:       now,
	}
}

// Request selects the model and horizon for one forecast. Exactly one of
// HorizonDays or EndDate must be set; Version empty or "latest" resolves
// to the newest registered model.
type Request struct {
	Version     string
	HorizonDays int
	EndDate     time.Time
}

// Result is one completed forecast. Metrics is the evaluation snapshot
// stored with the model version, not recomputed.
type Result struct {
	ModelVersion string
	Metrics      domain.EvalMetrics
	Predictions  []domain.PredictionPoint
}

// resolveHorizon converts the request into a positive day count starting
// tomorrow.
func (e *Engine) resolveHorizon(req Request) (int, error) {
	if !req.EndDate.IsZero() {
		today := domain.Day(e.now().UTC())
		// Inclusive day count from tomorrow: an end date of tomorrow is
		// a one-day horizon, anything at or before today is an error.
		days := int(domain.Day(req.EndDate).Sub(today).Hours() / 24)
		if days <= 0 {
			return 0, fmt.Errorf("%w: end date %s is not in the future", ErrInvalidDateRange, domain.FormatDate(req.EndDate))
		}
		return days, nil
	}
	if req.HorizonDays <= 0 {
		return 0, fmt.Errorf("%w: horizon must be at least one day", ErrInvalidDateRange)
	}
	return req.HorizonDays, nil
}

// resolveModel picks the version for this request.
func (e *Engine) resolveModel(ctx context.Context, version string) (*domain.ModelVersion, error) {
	if version == "" || version == "latest" {
		mv, err := e.registry.Latest(ctx)
		if err != nil {
			if errors.Is(err, registry.ErrNoModels) {
				return nil, ErrModelNotFound
			}
			return nil, err
		}
		return mv, nil
	}

	mv, err := e.registry.Get(ctx, version)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: version %q", ErrModelNotFound, version)
		}
		return nil, err
	}
	return mv, nil
}

// state is the rolling feature window the recursion advances one day at
// a time.
type state struct {
	price    float64
	lag1     float64
	lag2     float64
	lag7     float64
	lag14    float64
	rolling7 float64
	crude    float64
	inrUsd   float64
}

// seedState takes the most recent feature row as the initial window.
// Missing exogenous history falls back to fixed defaults so the first
// recursive step stays numerically stable.
func seedState(fr *domain.FeatureRow) state {
	st := state{
		price:    fr.PetrolPrice,
		lag1:     fr.Lag1,
		lag2:     fr.Lag2,
		lag7:     fr.Lag7,
		lag14:    fr.Lag14,
		rolling7: fr.Rolling7,
		crude:    DefaultCrudeOilPrice,
		inrUsd:   DefaultInrUsd,
	}
	if fr.CrudeOilPrice != nil {
		st.crude = *fr.CrudeOilPrice
	}
	if fr.InrUsd != nil {
		st.inrUsd = *fr.InrUsd
	}
	return st
}

func (s *state) vector() []float64 {
	return []float64{s.price, s.lag1, s.lag2, s.lag7, s.lag14, s.rolling7, s.crude, s.inrUsd}
}

// advance folds a prediction into the window: lags shift down one step
// and the rolling mean decays toward the prediction with a one-seventh
// weight, matching the trailing 7-day window it approximates.
func (s *state) advance(pred float64) {
	s.lag14 = s.lag7
	s.lag7 = s.lag2
	s.lag2 = s.lag1
	s.lag1 = s.price
	s.price = pred
	s.rolling7 = (s.rolling7*6 + pred) / 7
}

func clamp(v float64) float64 {
	if v < MinPlausiblePrice {
		return MinPlausiblePrice
	}
	if v > MaxPlausiblePrice {
		return MaxPlausiblePrice
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Run resolves the model and horizon, seeds the feature window from the
// latest stored row, and predicts one day at a time, feeding each
// prediction back into the window. Forecasts start tomorrow.
func (e *Engine) Run(ctx context.Context, req Request) (*Result, error) {
	horizon, err := e.resolveHorizon(req)
	if err != nil {
		return nil, err
	}

	mv, err := e.resolveModel(ctx, req.Version)
	if err != nil {
		return nil, err
	}

	lm, scaler, err := e.artifacts.Load(mv.Version)
	if err != nil {
		return nil, err
	}

	latest, err := e.features.Latest(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNoFeatures
		}
		return nil, fmt.Errorf("load latest features: %w", err)
	}

	st := seedState(latest)
	day := domain.Day(e.now().UTC()).AddDate(0, 0, 1)

	predictions := make([]domain.PredictionPoint, 0, horizon)
	for i := 0; i < horizon; i++ {
		scaled, err := scaler.Transform(st.vector())
		if err != nil {
			return nil, err
		}
		raw, err := lm.Predict(scaled)
		if err != nil {
			return nil, err
		}

		// The recorded price is rounded but the recursion keeps full
		// precision so rounding error does not compound over the horizon.
		pred := clamp(raw)
		predictions = append(predictions, domain.PredictionPoint{
			Date:           day,
			PredictedPrice: round2(pred),
		})

		st.advance(pred)
		day = day.AddDate(0, 0, 1)
	}

	return &Result{ModelVersion: mv.Version, Metrics: mv.Metrics, Predictions: predictions}, nil
}
