package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-prograde/internal/ports"
)

func TestPrometheusMetrics_Record(t *testing.T) {
	pm := NewPrometheusMetrics()

	pm.RecordCounter(MetricProjects, 2, map[string]string{"status": "graded"})
	pm.RecordCounter(MetricProjects, 1, map[string]string{"status": "missing"})
	pm.RecordCounter(MetricProjects, 1, nil)
	pm.RecordGauge(MetricStudents, 5, map[string]string{"state": "scored"})
	pm.RecordHistogram(MetricFinalScore, 8, nil)
	pm.RecordLatency("marks", 150*time.Millisecond, nil)
	pm.RecordCounter("something_else", 1, nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(pm.projects.WithLabelValues("graded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.projects.WithLabelValues("missing")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.projects.WithLabelValues("unknown")))
	assert.Equal(t, 5.0, testutil.ToFloat64(pm.students.WithLabelValues("scored")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.unknownCounter.WithLabelValues("something_else")))
	assert.Equal(t, 1, testutil.CollectAndCount(pm.finalScore))
}

func TestPrometheusMetrics_IndependentRegistries(t *testing.T) {
	// Separate instances must not collide on registration.
	a := NewPrometheusMetrics()
	b := NewPrometheusMetrics()
	a.RecordCounter(MetricProjects, 1, map[string]string{"status": "graded"})

	assert.Equal(t, 0.0, testutil.ToFloat64(b.projects.WithLabelValues("graded")))
}

func TestPrometheusMetrics_WriteTextfile(t *testing.T) {
	pm := NewPrometheusMetrics()
	pm.RecordCounter(MetricProjects, 3, map[string]string{"status": "graded"})

	path := filepath.Join(t.TempDir(), "prograde.prom")
	require.NoError(t, pm.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `prograde_projects_total{status="graded"} 3`)

	err = pm.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "x.prom"))
	require.Error(t, err)
	var me *ports.MetricsError
	assert.True(t, errors.As(err, &me))
}

func TestNop(t *testing.T) {
	var c ports.MetricsCollector = Nop{}
	c.RecordCounter(MetricProjects, 1, nil)
	c.RecordGauge(MetricStudents, 1, nil)
	c.RecordHistogram(MetricFinalScore, 1, nil)
	c.RecordLatency("x", time.Second, nil)
}
