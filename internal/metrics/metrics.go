// Package metrics provides centralized Prometheus metrics registry for the prediction pipeline.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "peloton"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	PredictionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "predictions_total",
		Help:      "Total number of prediction runs by event class",
	}, []string{"event_class"})
	SimulationTrialsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "simulation_trials_total",
		Help:      "Total number of simulated race trials",
	})
	OptimizerRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "optimizer_runs_total",
		Help:      "Total number of roster optimizations by objective and status",
	}, []string{"objective", "status"})
	CacheRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_requests_total",
		Help:      "Prediction cache lookups by result",
	}, []string{"result"})
)

// Gauge metrics
var (
	CacheHitRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "cache_hit_ratio",
		Help:      "Fraction of prediction cache lookups served from cache",
	})
	PoolSize = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "pool_size",
		Help:      "Number of competitors in the most recent pool per event",
	}, []string{"event_id"})
)

// Histogram metrics
var (
	SimulationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "simulation_duration_seconds",
		Help:      "Duration of simulation passes in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	OptimizerDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "optimizer_duration_seconds",
		Help:      "Duration of roster optimizations in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
	})
	OptimizerNodes = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "optimizer_nodes",
		Help:      "Branch-and-bound nodes explored per optimization",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(PredictionsTotal)
		registry.MustRegister(SimulationTrialsTotal)
		registry.MustRegister(OptimizerRunsTotal)
		registry.MustRegister(CacheRequestsTotal)

		registry.MustRegister(CacheHitRatio)
		registry.MustRegister(PoolSize)

		registry.MustRegister(SimulationDuration)
		registry.MustRegister(OptimizerDuration)
		registry.MustRegister(OptimizerNodes)

		registry.MustRegister(BacktestRunsTotal)
		registry.MustRegister(BacktestDuration)
		registry.MustRegister(BacktestMAE)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordPrediction records a completed prediction run.
func RecordPrediction(eventClass string) {
	PredictionsTotal.WithLabelValues(eventClass).Inc()
}

// RecordSimulation records a simulation pass.
func RecordSimulation(trials int, durationSeconds float64) {
	SimulationTrialsTotal.Add(float64(trials))
	SimulationDuration.Observe(durationSeconds)
}

// RecordOptimizerRun records a roster optimization outcome.
func RecordOptimizerRun(objective, status string, nodes int, durationSeconds float64) {
	OptimizerRunsTotal.WithLabelValues(objective, status).Inc()
	OptimizerNodes.Observe(float64(nodes))
	OptimizerDuration.Observe(durationSeconds)
}

// RecordCacheRequest records a cache lookup; result is "hit" or "miss".
func RecordCacheRequest(result string) {
	CacheRequestsTotal.WithLabelValues(result).Inc()
}

// UpdateCacheHitRatio updates the cache hit ratio gauge.
func UpdateCacheHitRatio(ratio float64) {
	CacheHitRatio.Set(ratio)
}

// UpdatePoolSize updates the pool size gauge for an event.
func UpdatePoolSize(eventID string, size int) {
	PoolSize.WithLabelValues(eventID).Set(float64(size))
}
