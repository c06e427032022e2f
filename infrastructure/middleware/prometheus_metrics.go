// Package middleware provides cross-cutting observability adapters for
// the examiner.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/gradeband/examiner/internal/ports"
)

var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. It provides real-time monitoring of dispatch traffic,
// generation latency, token consumption, and interpretation outcomes.
type PrometheusMetrics struct {
	requestCounter    *prometheus.CounterVec
	tokenCounter      *prometheus.CounterVec
	generationLatency *prometheus.HistogramVec
	operationLatency  *prometheus.HistogramVec
	systemGauges      *prometheus.GaugeVec
}

// NewPrometheusMetrics creates a PrometheusMetrics instance and
// registers all metrics in the global Prometheus registry.
func NewPrometheusMetrics() *PrometheusMetrics {
	return NewPrometheusMetricsWith(prometheus.DefaultRegisterer)
}

// NewPrometheusMetricsWith registers the metrics with a specific
// registerer. Tests use this to avoid duplicate registration in the
// global registry.
func NewPrometheusMetricsWith(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)
	return &PrometheusMetrics{
		requestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "examiner_generation_requests_total",
				Help: "Total number of generation requests, by model and outcome.",
			},
			[]string{"model", "status"},
		),
		tokenCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "examiner_generation_tokens_total",
				Help: "Total number of tokens consumed across generation calls.",
			},
			[]string{"model", "token_type"},
		),
		generationLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "examiner_generation_duration_seconds",
				Help:    "Wall-clock time of individual generation calls.",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
			},
			[]string{"model", "status"},
		),
		operationLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "examiner_operation_duration_seconds",
				Help:    "Execution time of examiner operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		systemGauges: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "examiner_system_state",
				Help: "Current system state values.",
			},
			[]string{"metric"},
		),
	}
}

// RecordLatency implements the MetricsCollector interface by recording
// operation latency in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordLatency(operation string, duration time.Duration, labels map[string]string) {
	pm.operationLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCounter implements the MetricsCollector interface by
// incrementing Prometheus counters. Generation request and token
// metrics map to dedicated collectors; anything else is ignored.
func (pm *PrometheusMetrics) RecordCounter(metric string, value float64, labels map[string]string) {
	model := labelOr(labels, "model", "unknown")

	switch metric {
	case "generation_requests_total":
		pm.requestCounter.WithLabelValues(model, labelOr(labels, "status", "unknown")).Add(value)
	case "generation_tokens_total":
		pm.tokenCounter.WithLabelValues(model, labelOr(labels, "token_type", "unknown")).Add(value)
	}
}

// RecordGauge implements the MetricsCollector interface by setting a
// labeled system gauge.
func (pm *PrometheusMetrics) RecordGauge(metric string, value float64, labels map[string]string) {
	pm.systemGauges.WithLabelValues(metric).Set(value)
}

// RecordHistogram implements the MetricsCollector interface by
// observing a value in the generation latency histogram.
func (pm *PrometheusMetrics) RecordHistogram(metric string, value float64, labels map[string]string) {
	if metric != "generation_latency_seconds" {
		return
	}
	pm.generationLatency.WithLabelValues(
		labelOr(labels, "model", "unknown"),
		labelOr(labels, "status", "unknown"),
	).Observe(value)
}

func labelOr(labels map[string]string, key, fallback string) string {
	if v, ok := labels[key]; ok && v != "" {
		return v
	}
	return fallback
}
