package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-prograde/internal/domain"
	"github.com/ahrav/go-prograde/internal/testutils"
)

func TestTracingLocator_Locate(t *testing.T) {
	tests := []struct {
		name      string
		marks     map[string]domain.MarkSet
		err       error
		wantFound bool
	}{
		{
			name:      "marks found",
			marks:     map[string]domain.MarkSet{"a": {domain.Questions: 9}},
			wantFound: true,
		},
		{
			name: "no marks",
		},
		{
			name: "error passes through",
			err:  errors.New("boom"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &testutils.MockLocator{Marks: tt.marks, Err: tt.err}
			rec := testutils.NewRecordingMetrics()
			tl := NewTracingLocator(stub, rec)

			marks, found, err := tl.Locate(context.Background(), "projects/a")
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				assert.Nil(t, marks)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.marks["a"], marks)
			}
			assert.Equal(t, tt.wantFound, found)
			assert.Equal(t, []string{"projects/a"}, stub.Calls())
			assert.Equal(t, []string{"locate"}, rec.Latencies())
		})
	}
}

func TestNewTracingLocator_PanicsOnNil(t *testing.T) {
	assert.Panics(t, func() { NewTracingLocator(nil, testutils.NewRecordingMetrics()) })
	assert.Panics(t, func() { NewTracingLocator(&testutils.MockLocator{}, nil) })
}
