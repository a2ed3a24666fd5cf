package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypedErrorsUnwrap(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		target  error
		wantMsg string
	}{
		{
			name:    "config error",
			err:     NewConfigError("export.merge_col", "must be set"),
			target:  ErrConfiguration,
			wantMsg: "configuration error: key=export.merge_col: must be set",
		},
		{
			name: "schema violation with missing categories",
			err: &SchemaViolationError{
				Project: "A",
				Missing: []Category{Analysis, Writing},
			},
			target:  ErrSchemaViolation,
			wantMsg: `mark schema violation in project "A": missing Analysis, Writing`,
		},
		{
			name: "schema violation with hinted extra category",
			err: &SchemaViolationError{
				Project: "B",
				Missing: []Category{Results},
				Extra:   []Category{"Result"},
				Hints:   map[Category]Category{"Result": Results},
			},
			target:  ErrSchemaViolation,
			wantMsg: `mark schema violation in project "B": missing Results: unexpected Result (Result: did you mean Results?)`,
		},
		{
			name: "unknown students",
			err: &MembershipError{
				Project:  "A",
				Students: []string{"zed"},
				Reason:   ReasonUnknown,
			},
			target:  ErrMembership,
			wantMsg: `unknown students in project "A": zed`,
		},
		{
			name: "overlapping students",
			err: &MembershipError{
				Project:  "B",
				Students: []string{"amy", "bob"},
				Reason:   ReasonOverlap,
				Other:    "A",
			},
			target:  ErrMembership,
			wantMsg: `students overlap with another project in project "B": amy, bob (already in "A")`,
		},
		{
			name:    "missing marks",
			err:     &MissingMarksError{Project: "C", Path: "projects/C"},
			target:  ErrMissingMarks,
			wantMsg: "missing project marks for C (searched projects/C)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
			assert.True(t, errors.Is(tt.err, tt.target), "should unwrap to sentinel")
		})
	}
}
