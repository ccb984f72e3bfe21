// Package observability exposes Prometheus metrics for the pipeline.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the instrument set shared across services. Create one
// per process and pass it down by dependency injection.
type Metrics struct {
	registry *prometheus.Registry

	RawPointsIngested *prometheus.CounterVec
	PipelineRuns      *prometheus.CounterVec
	FeatureRowsBuilt  prometheus.Counter
	ModelsTrained     prometheus.Counter
	ForecastsServed   prometheus.Counter
	ForecastHorizon   prometheus.Histogram
	PipelineDuration  prometheus.Histogram
}

// NewMetrics creates a metric set on its own registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RawPointsIngested: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "petrol_raw_points_ingested_total",
			Help: "Raw observations accepted by the ingestion service.",
		}, []string{"kind"}),
		PipelineRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "petrol_pipeline_runs_total",
			Help: "ETL pipeline runs by outcome.",
		}, []string{"outcome"}),
		FeatureRowsBuilt: factory.NewCounter(prometheus.CounterOpts{
			Name: "petrol_feature_rows_built_total",
			Help: "Feature rows produced by the feature builder.",
		}),
		ModelsTrained: factory.NewCounter(prometheus.CounterOpts{
			Name: "petrol_models_trained_total",
			Help: "Model versions registered by the training workflow.",
		}),
		ForecastsServed: factory.NewCounter(prometheus.CounterOpts{
			Name: "petrol_forecasts_served_total",
			Help: "Forecast requests completed successfully.",
		}),
		ForecastHorizon: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "petrol_forecast_horizon_days",
			Help:    "Requested forecast horizon in days.",
			Buckets: []float64{1, 3, 7, 14, 30, 60, 90},
		}),
		PipelineDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "petrol_pipeline_duration_seconds",
			Help:    "Wall time of full pipeline runs.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Handler returns the HTTP handler serving the /metrics endpoint for
// this metric set.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
