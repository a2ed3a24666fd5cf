// Package metrics records run statistics and publishes them as a
// Prometheus text file for a node exporter textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/go-prograde/internal/ports"
)

// Metric names understood by RecordCounter, RecordGauge and
// RecordHistogram.
const (
	MetricProjects   = "projects_total"
	MetricStudents   = "students"
	MetricFinalScore = "final_score"
)

var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)

// PrometheusMetrics implements ports.MetricsCollector on a private
// registry, so several instances can coexist in one process.
type PrometheusMetrics struct {
	registry          *prometheus.Registry
	operationDuration *prometheus.HistogramVec
	projects          *prometheus.CounterVec
	students          *prometheus.GaugeVec
	finalScore        prometheus.Histogram
	unknownCounter    *prometheus.CounterVec
}

// NewPrometheusMetrics creates a PrometheusMetrics with all collectors
// registered on a fresh registry.
func NewPrometheusMetrics() *PrometheusMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		registry: reg,
		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "prograde_operation_duration_seconds",
				Help:    "Duration of grading operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		projects: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prograde_projects_total",
				Help: "Projects processed, by outcome.",
			},
			[]string{"status"},
		),
		students: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "prograde_students",
				Help: "Roster students, by scoring state.",
			},
			[]string{"state"},
		),
		finalScore: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "prograde_final_score",
				Help:    "Distribution of computed final scores.",
				Buckets: prometheus.LinearBuckets(0, 10, 11),
			},
		),
		unknownCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prograde_unclassified_events_total",
				Help: "Events recorded under an unrecognised metric name.",
			},
			[]string{"metric"},
		),
	}
}


// RecordLatency records the duration of operation.
func (pm *PrometheusMetrics) RecordLatency(operation string, duration time.Duration, _ map[string]string) {
	pm.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCounter adds value to a counter. MetricProjects expects a
// "status" label.
func (pm *PrometheusMetrics) RecordCounter(metric string, value float64, labels map[string]string) {
	switch metric {
	case MetricProjects:
		pm.projects.WithLabelValues(labelOr(labels, "status", "unknown")).Add(value)
	default:
		pm.unknownCounter.WithLabelValues(metric).Add(value)
	}
}

// RecordGauge sets a gauge. MetricStudents expects a "state" label.
func (pm *PrometheusMetrics) RecordGauge(metric string, value float64, labels map[string]string) {
	switch metric {
	case MetricStudents:
		pm.students.WithLabelValues(labelOr(labels, "state", "unknown")).Set(value)
	default:
		pm.unknownCounter.WithLabelValues(metric).Inc()
	}
}

// RecordHistogram observes value for MetricFinalScore.
func (pm *PrometheusMetrics) RecordHistogram(metric string, value float64, _ map[string]string) {
	switch metric {
	case MetricFinalScore:
		pm.finalScore.Observe(value)
	default:
		pm.unknownCounter.WithLabelValues(metric).Inc()
	}
}

// WriteTextfile writes all metrics in the Prometheus text format to path.
// The file is replaced atomically.
func (pm *PrometheusMetrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, pm.registry); err != nil {
		return ports.NewMetricsError(path, "write_textfile", err)
	}
	return nil
}

func labelOr(labels map[string]string, key, fallback string) string {
	if v, ok := labels[key]; ok && v != "" {
		return v
	}
	return fallback
}

// Nop discards all metrics. It is used when no text file is configured.
type Nop struct{}

var _ ports.MetricsCollector = Nop{}

func (Nop) RecordLatency(string, time.Duration, map[string]string) {}
func (Nop) RecordCounter(string, float64, map[string]string)       {}
func (Nop) RecordGauge(string, float64, map[string]string)         {}
func (Nop) RecordHistogram(string, float64, map[string]string)     {}
