package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategories(t *testing.T) {
	cats := Categories()
	assert.Len(t, cats, NumCategories)
	assert.Equal(t, Questions, cats[0])
	assert.Equal(t, Reproducibility, cats[NumCategories-1])

	// Mutating the returned copy must not leak into the shared set.
	cats[0] = "Tampered"
	assert.Equal(t, Questions, Categories()[0])
}

func TestIsCategory(t *testing.T) {
	assert.True(t, IsCategory("Analysis"))
	assert.False(t, IsCategory("analysis"), "category names are case sensitive")
	assert.False(t, IsCategory("Style"))
}

func TestMarkSet_Ordered(t *testing.T) {
	tests := []struct {
		name   string
		marks  MarkSet
		want   [NumCategories]float64
		wantOK bool
	}{
		{
			name: "complete set in canonical order",
			marks: MarkSet{
				Reproducibility: 7, Questions: 9, Analysis: 7,
				Results: 8, Readability: 9, Writing: 8,
			},
			want:   [NumCategories]float64{9, 7, 8, 9, 8, 7},
			wantOK: true,
		},
		{
			name:   "incomplete set",
			marks:  MarkSet{Questions: 9},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.marks.Ordered()
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestMarkSet_Keys(t *testing.T) {
	m := MarkSet{Writing: 1, Analysis: 2, "Extra": 3}
	assert.Equal(t, []Category{Analysis, "Extra", Writing}, m.Keys())
}
