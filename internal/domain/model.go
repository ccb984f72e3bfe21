package domain

import (
	"fmt"
	"time"
)

// Metric is the closed set of evaluation metrics the registry can rank by.
// Every supported metric is lower-is-better.
type Metric string

const (
	MetricRMSE Metric = "rmse"
	MetricMAE  Metric = "mae"
	MetricMAPE Metric = "mape"
)

// ParseMetric validates a metric name. Unknown names are an error,
// never a silent fallback.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case MetricRMSE, MetricMAE, MetricMAPE:
		return Metric(s), nil
	}
	return "", fmt.Errorf("unknown metric %q", s)
}

// IsValid checks if the metric is a known value.
func (m Metric) IsValid() bool {
	switch m {
	case MetricRMSE, MetricMAE, MetricMAPE:
		return true
	}
	return false
}

// String returns the string representation of Metric.
func (m Metric) String() string {
	return string(m)
}

// EvalMetrics is the evaluation snapshot stored with a model version.
type EvalMetrics struct {
	RMSE float64 `json:"rmse"`
	MAE  float64 `json:"mae"`
	MAPE float64 `json:"mape"`
	R2   float64 `json:"r2"`
}

// Value returns the metric's stored value.
func (e EvalMetrics) Value(m Metric) float64 {
	switch m {
	case MetricMAE:
		return e.MAE
	case MetricMAPE:
		return e.MAPE
	default:
		return e.RMSE
	}
}

// ModelVersion binds one trained artifact, its paired feature-scaling
// transform and its evaluation metrics. Immutable once created except for
// the controlled metric upsert keyed by version.
// Corresponds to the model_registry table.
type ModelVersion struct {
	ID              int64
	Version         string // "v<N>", monotonically increasing
	ModelPath       string // artifact location under the model directory
	Metrics         EvalMetrics
	TrainingSamples int
	DataSource      SourceCategory // which raw data category trained this model
	CreatedAt       time.Time
}
