// Package scoring provides the aggregators that fold a student's component
// scores into a final score.
package scoring

import (
	"errors"
	"math"

	"github.com/go-playground/validator/v10"
)

// Rounding represents the tie-break rule applied when a final score is
// rounded to a whole number.
type Rounding string

// Supported rounding rules.
const (
	// RoundHalfEven rounds x.5 to the nearest even integer (8.5 -> 8,
	// 9.5 -> 10). This matches the behaviour of the spreadsheet exports the
	// tool replaced and is the default.
	RoundHalfEven Rounding = "half_even"

	// RoundHalfAway rounds x.5 away from zero (8.5 -> 9).
	RoundHalfAway Rounding = "half_away"
)

// Common errors returned by aggregators.
var (
	// ErrNoScores is returned when no scores are provided for aggregation.
	ErrNoScores = errors.New("no scores provided for aggregation")

	// ErrInvalidScore is returned for NaN or infinite inputs.
	ErrInvalidScore = errors.New("invalid score")
)

// Package-level validator instance for configuration validation.
var validate = validator.New()

// Round applies rule to x. Unknown rules fall back to RoundHalfEven.
func Round(x float64, rule Rounding) float64 {
	if rule == RoundHalfAway {
		return math.Round(x)
	}
	return math.RoundToEven(x)
}
