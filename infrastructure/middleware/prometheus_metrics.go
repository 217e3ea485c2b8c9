// Package middleware provides cross-cutting concerns for the scoring
// engine.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/realizewhoitis/training-tracker-sub001/internal/ports"
)

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. It provides real-time monitoring of aggregation reads,
// risk sweeps, and skipped records.
type PrometheusMetrics struct {
	operationLatency *prometheus.HistogramVec
	counters         *prometheus.CounterVec
	gauges           *prometheus.GaugeVec
	pooledMeans      *prometheus.HistogramVec
}

// NewPrometheusMetrics creates a PrometheusMetrics instance and registers
// all required metrics in the global Prometheus registry. Register it
// once per process; promauto panics on duplicate registration.
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		operationLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "evalengine_operation_duration_seconds",
				Help:    "Execution time of engine operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		counters: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evalengine_events_total",
				Help: "Engine events: scored, skipped, and flagged records.",
			},
			[]string{"metric", "reason", "severity", "operation"},
		),
		gauges: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "evalengine_state",
				Help: "Current engine state values.",
			},
			[]string{"metric"},
		),
		pooledMeans: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "evalengine_pooled_mean",
				Help:    "Distribution of pooled rating means observed by scans.",
				Buckets: prometheus.LinearBuckets(0, 0.5, 15),
			},
			[]string{"metric"},
		),
	}
}

// RecordLatency implements the MetricsCollector interface by recording
// operation latency in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordLatency(
	operation string,
	duration time.Duration,
	labels map[string]string,
) {
	pm.operationLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCounter implements the MetricsCollector interface by
// incrementing Prometheus counters.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	pm.counters.WithLabelValues(
		metric,
		labels["reason"],
		labels["severity"],
		labels["operation"],
	).Add(value)
}

// RecordGauge implements the MetricsCollector interface by setting
// Prometheus gauges.
func (pm *PrometheusMetrics) RecordGauge(
	metric string, value float64, labels map[string]string,
) {
	pm.gauges.WithLabelValues(metric).Set(value)
}

// RecordHistogram implements the MetricsCollector interface by observing
// a value in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordHistogram(
	metric string, value float64, labels map[string]string,
) {
	pm.pooledMeans.WithLabelValues(metric).Observe(value)
}

var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)
