package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PredictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eta_predictions_total",
		Help: "Total ETA predictions served, by method.",
	}, []string{"method"})

	PredictionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "eta_prediction_duration_seconds",
		Help:    "End to end prediction latency.",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eta_cache_hits_total",
		Help: "Cache hits by cache type (prediction, traffic, weather).",
	}, []string{"cache"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eta_cache_misses_total",
		Help: "Cache misses by cache type.",
	}, []string{"cache"})

	ProviderErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eta_provider_errors_total",
		Help: "External condition provider failures, by provider.",
	}, []string{"provider"})

	PredictionErrorMinutes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "eta_prediction_error_minutes",
		Help:    "Absolute prediction error observed at trip completion.",
		Buckets: []float64{0.5, 1, 2, 3, 5, 10, 15, 30},
	})

	TrainingRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eta_training_runs_total",
		Help: "Model training runs, by outcome.",
	}, []string{"outcome"})

	TrainingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "eta_training_duration_seconds",
		Help:    "Wall clock duration of training runs.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	TrainingSamples = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "eta_training_samples",
		Help: "Completion records available for the next training run.",
	})

	ModelLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "eta_model_loaded",
		Help: "1 when a trained model artifact is serving, 0 on fallback.",
	})

	TrainingInProgress = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "eta_training_in_progress",
		Help: "1 while a training run is executing.",
	})
)

// ObservePrediction records one served prediction.
func ObservePrediction(method string, duration time.Duration) {
	PredictionsTotal.WithLabelValues(method).Inc()
	PredictionDuration.Observe(duration.Seconds())
}

// ObserveCompletion records the accuracy of a finished trip.
func ObserveCompletion(errorMinutes float64) {
	PredictionErrorMinutes.Observe(errorMinutes)
}
