package forecast

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"petrol-price-lab/internal/domain"
	"petrol-price-lab/internal/observability"
	"petrol-price-lab/internal/storage"
)

// Service runs forecasts and records an audit entry for each successful
// one. Failed forecasts leave no trace in the log.
type Service struct {
	engine  *Engine
	logs    storage.PredictionLogStore
	metrics *observability.Metrics
	logger  zerolog.Logger
	now     func() time.Time
}

// ServiceOptions contains configuration for creating a Service.
type ServiceOptions struct {
	Engine  *Engine
	Logs    storage.PredictionLogStore
	Metrics *observability.Metrics
	Logger  zerolog.Logger
	Now     func() time.Time
}

// NewService creates a new forecast service.
func NewService(opts ServiceOptions) *Service {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		engine:  opts.Engine,
		logs:    opts.Logs,
		metrics: opts.Metrics,
		logger:  opts.Logger.With().Str("component", "forecast").Logger(),
		now:     now,
	}
}

// Forecast runs the engine and, on success, appends the outcome to the
// prediction log.
func (s *Service) Forecast(ctx context.Context, req Request) (*Result, error) {
	result, err := s.engine.Run(ctx, req)
	if err != nil {
		s.logger.Warn().Err(err).Str("version", req.Version).Msg("forecast failed")
		return nil, err
	}

	entry := &domain.PredictionLog{
		RequestTime:  s.now().UTC(),
		HorizonDays:  len(result.Predictions),
		ModelVersion: result.ModelVersion,
		Predictions:  result.Predictions,
	}
	if err := s.logs.Insert(ctx, entry); err != nil {
		return nil, fmt.Errorf("record prediction log: %w", err)
	}

	if s.metrics != nil {
		s.metrics.ForecastsServed.Inc()
		s.metrics.ForecastHorizon.Observe(float64(len(result.Predictions)))
	}
	s.logger.Info().
		Str("version", result.ModelVersion).
		Int("horizon_days", len(result.Predictions)).
		Float64("first", result.Predictions[0].PredictedPrice).
		Float64("last", result.Predictions[len(result.Predictions)-1].PredictedPrice).
		Msg("forecast complete")

	return result, nil
}
