package testutils

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/ahrav/go-prograde/internal/domain"
	"github.com/ahrav/go-prograde/internal/ports"
)

var (
	_ ports.MarkLocator      = (*MockLocator)(nil)
	_ ports.MetricsCollector = (*RecordingMetrics)(nil)
)

// MockLocator implements ports.MarkLocator with canned mark sets keyed by
// the base name of the directory looked up. It records every lookup.
type MockLocator struct {
	mu sync.Mutex
	// Marks maps a project directory name to its mark set. Directories
	// not listed have no marks.
	Marks map[string]domain.MarkSet
	// Err, when set, is returned by every lookup.
	Err   error
	calls []string
}

// Locate implements ports.MarkLocator.
func (m *MockLocator) Locate(_ context.Context, dir string) (domain.MarkSet, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, dir)
	if m.Err != nil {
		return nil, false, m.Err
	}
	marks, ok := m.Marks[filepath.Base(dir)]
	if !ok || len(marks) == 0 {
		return nil, false, nil
	}
	return marks, true, nil
}

// Calls returns the directories looked up, in order.
func (m *MockLocator) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// RecordingMetrics implements ports.MetricsCollector by keeping every
// recorded value in memory. Counter and gauge keys are the metric name,
// followed by "/" and the label values in label-name order when labels
// are given, e.g. "projects_total/graded".
type RecordingMetrics struct {
	mu         sync.Mutex
	latencies  []string
	counters   map[string]float64
	gauges     map[string]float64
	histograms map[string][]float64
}

// NewRecordingMetrics creates an empty RecordingMetrics.
func NewRecordingMetrics() *RecordingMetrics {
	return &RecordingMetrics{
		counters:   make(map[string]float64),
		gauges:     make(map[string]float64),
		histograms: make(map[string][]float64),
	}
}

func metricKey(metric string, labels map[string]string) string {
	names := make([]string, 0, len(labels))
	for name := range labels {
		names = append(names, name)
	}
	sort.Strings(names)
	key := metric
	for _, name := range names {
		key += "/" + labels[name]
	}
	return key
}

// RecordLatency implements ports.MetricsCollector.
func (r *RecordingMetrics) RecordLatency(operation string, _ time.Duration, _ map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.latencies = append(r.latencies, operation)
}

// RecordCounter implements ports.MetricsCollector.
func (r *RecordingMetrics) RecordCounter(metric string, value float64, labels map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[metricKey(metric, labels)] += value
}

// RecordGauge implements ports.MetricsCollector.
func (r *RecordingMetrics) RecordGauge(metric string, value float64, labels map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gauges[metricKey(metric, labels)] = value
}

// RecordHistogram implements ports.MetricsCollector.
func (r *RecordingMetrics) RecordHistogram(metric string, value float64, _ map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.histograms[metric] = append(r.histograms[metric], value)
}

// Latencies returns the operations timed, in order.
func (r *RecordingMetrics) Latencies() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.latencies...)
}

// Counter returns the accumulated value for key.
func (r *RecordingMetrics) Counter(key string) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counters[key]
}

// Gauge returns the last value set for key.
func (r *RecordingMetrics) Gauge(key string) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gauges[key]
}

// Observations returns the values observed for a histogram metric.
func (r *RecordingMetrics) Observations(metric string) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]float64(nil), r.histograms[metric]...)
}
