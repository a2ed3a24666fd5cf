package testutils

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-prograde/infrastructure/markblock"
	"github.com/ahrav/go-prograde/internal/domain"
)

func TestMarksNotebook_ParsesBack(t *testing.T) {
	tests := []struct {
		name  string
		marks domain.MarkSet
	}{
		{name: "example", marks: ExampleMarks()},
		{name: "uniform fractional", marks: UniformMarks(7.5)},
		{name: "extra category", marks: domain.MarkSet{domain.Questions: 3, "Style": 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := MarksNotebook(tt.marks)
			require.NoError(t, err)

			got, ok, err := markblock.ParseNotebook(data)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, tt.marks, got)
		})
	}
}

func TestNotebookJSON_LineSources(t *testing.T) {
	cell := Markdown(MarksBlock(ExampleMarks()))
	cell.Lines = true
	data, err := NotebookJSON(cell)
	require.NoError(t, err)

	got, ok, err := markblock.ParseNotebook(data)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ExampleMarks(), got)
}

func TestMockLocator(t *testing.T) {
	loc := &MockLocator{Marks: map[string]domain.MarkSet{"alpha": ExampleMarks()}}

	marks, found, err := loc.Locate(context.Background(), "/course/projects/alpha")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, ExampleMarks(), marks)

	_, found, err = loc.Locate(context.Background(), "/course/projects/beta")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, []string{"/course/projects/alpha", "/course/projects/beta"}, loc.Calls())

	loc.Err = errors.New("unreadable")
	_, _, err = loc.Locate(context.Background(), "alpha")
	assert.EqualError(t, err, "unreadable")
}

func TestRecordingMetrics(t *testing.T) {
	m := NewRecordingMetrics()
	m.RecordCounter("projects_total", 1, map[string]string{"status": "graded"})
	m.RecordCounter("projects_total", 2, map[string]string{"status": "graded"})
	m.RecordGauge("students", 4, map[string]string{"state": "scored"})
	m.RecordHistogram("final_score", 8, nil)
	m.RecordLatency("marks", 0, nil)

	assert.Equal(t, 3.0, m.Counter("projects_total/graded"))
	assert.Equal(t, 4.0, m.Gauge("students/scored"))
	assert.Equal(t, []float64{8}, m.Observations("final_score"))
	assert.Equal(t, []string{"marks"}, m.Latencies())
}
