package training

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"petrol-price-lab/internal/domain"
	"petrol-price-lab/internal/etl"
	"petrol-price-lab/internal/features"
	"petrol-price-lab/internal/model"
	"petrol-price-lab/internal/observability"
	"petrol-price-lab/internal/registry"
)

// ErrInsufficientData is returned when too few training samples survive
// feature engineering.
var ErrInsufficientData = errors.New("insufficient training data")

// MinTrainingSamples is the smallest dataset a model may be fitted on.
const MinTrainingSamples = 10

// holdoutFraction of the samples, chronologically last, is held out for
// evaluation.
const holdoutFraction = 0.2

// Workflow runs the full train-and-register cycle.
type Workflow struct {
	pipeline  *etl.Pipeline
	builder   *features.Builder
	trainer   Trainer
	registry  *registry.Service
	artifacts *model.ArtifactStore
	metrics   *observability.Metrics
	logger    zerolog.Logger
}

// Options contains configuration for creating a Workflow.
type Options struct {
	Pipeline  *etl.Pipeline
	Builder   *features.Builder
	Trainer   Trainer
	Registry  *registry.Service
	Artifacts *model.ArtifactStore
	Metrics   *observability.Metrics
	Logger    zerolog.Logger
}

// NewWorkflow creates a new training workflow.
func NewWorkflow(opts Options) *Workflow {
	return &Workflow{
		pipeline:  opts.Pipeline,
		builder:   opts.Builder,
		trainer:   opts.Trainer,
		registry:  opts.Registry,
		artifacts: opts.Artifacts,
		metrics:   opts.Metrics,
		logger:    opts.Logger.With().Str("component", "training").Logger(),
	}
}

// RunOptions selects the data for one training run. Zero Start or End
// bounds are unbounded.
type RunOptions struct {
	Category       domain.SourceCategory
	Start          time.Time
	End            time.Time
	RemoveOutliers bool
}

// Run executes extract, clean, feature build, fit, evaluate and register
// as one cycle and returns the new registry entry.
func (w *Workflow) Run(ctx context.Context, opts RunOptions) (*domain.ModelVersion, error) {
	series, err := w.pipeline.Run(ctx, opts.Category, opts.Start, opts.End, etl.CleanOptions{RemoveOutliers: opts.RemoveOutliers})
	if err != nil {
		return nil, err
	}

	rows := w.builder.Build(series)
	if _, err := w.builder.Persist(ctx, rows); err != nil {
		return nil, err
	}

	inputs, targets, columns := features.ToTrainingArrays(rows)
	if len(inputs) < MinTrainingSamples {
		return nil, fmt.Errorf("%w: %d samples, need %d", ErrInsufficientData, len(inputs), MinTrainingSamples)
	}

	// Chronological holdout: fit on the head, score on the tail. The
	// scaler statistics come from the training head only.
	split := len(inputs) - int(float64(len(inputs))*holdoutFraction)
	if split >= len(inputs) {
		split = len(inputs) - 1
	}

	scaler, err := model.FitScaler(inputs[:split])
	if err != nil {
		return nil, err
	}
	scaled, err := scaler.TransformAll(inputs)
	if err != nil {
		return nil, err
	}

	lm, err := w.trainer.Train(ctx, scaled[:split], targets[:split])
	if err != nil {
		return nil, fmt.Errorf("fit model: %w", err)
	}

	predicted := make([]float64, len(scaled)-split)
	for i, x := range scaled[split:] {
		predicted[i], err = lm.Predict(x)
		if err != nil {
			return nil, err
		}
	}
	evalMetrics := Evaluate(targets[split:], predicted)

	version, err := w.registry.NextVersion(ctx)
	if err != nil {
		return nil, err
	}
	if err := w.artifacts.Save(version, lm, scaler); err != nil {
		return nil, err
	}

	mv := &domain.ModelVersion{
		Version:         version,
		ModelPath:       w.artifacts.ModelPath(version),
		Metrics:         evalMetrics,
		TrainingSamples: len(inputs),
		DataSource:      opts.Category,
	}
	if err := w.registry.Register(ctx, mv); err != nil {
		return nil, err
	}

	if w.metrics != nil {
		w.metrics.ModelsTrained.Inc()
	}
	w.logger.Info().
		Str("version", version).
		Int("samples", len(inputs)).
		Strs("features", columns).
		Float64("rmse", evalMetrics.RMSE).
		Float64("mae", evalMetrics.MAE).
		Float64("mape", evalMetrics.MAPE).
		Float64("r2", evalMetrics.R2).
		Msg("training run complete")

	return mv, nil
}
