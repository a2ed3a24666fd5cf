package scoring

import (
	"fmt"
	"math"

	"github.com/ahrav/go-prograde/internal/domain"
)

var _ domain.Aggregator = (*ArithmeticMean)(nil)

// ArithmeticMean implements domain.Aggregator as the unweighted mean of all
// component scores, optionally rounded to a whole number once the mean is
// taken. It is stateless and safe for concurrent use.
type ArithmeticMean struct {
	config ArithmeticMeanConfig
}

// ArithmeticMeanConfig controls rounding of the aggregate.
type ArithmeticMeanConfig struct {
	// RoundFinal rounds the mean to the nearest whole number.
	RoundFinal bool `yaml:"round_final" validate:"-"`

	// Rounding selects the tie-break rule used when RoundFinal is set.
	Rounding Rounding `yaml:"rounding" validate:"required,oneof=half_even half_away"`
}

// DefaultArithmeticMeanConfig returns a configuration that leaves the mean
// unrounded and uses half-to-even when rounding is switched on.
func DefaultArithmeticMeanConfig() ArithmeticMeanConfig {
	return ArithmeticMeanConfig{Rounding: RoundHalfEven}
}

// NewArithmeticMean creates an ArithmeticMean after validating config.
func NewArithmeticMean(config ArithmeticMeanConfig) (*ArithmeticMean, error) {
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &ArithmeticMean{config: config}, nil
}

// Aggregate returns Σscores / len(scores), rounded per configuration.
// Rounding happens strictly after averaging.
func (a *ArithmeticMean) Aggregate(scores []float64) (float64, error) {
	if len(scores) == 0 {
		return 0, ErrNoScores
	}

	var sum float64
	for i, s := range scores {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return 0, fmt.Errorf("%w at index %d: %f", ErrInvalidScore, i, s)
		}
		sum += s
	}

	mean := sum / float64(len(scores))
	if a.config.RoundFinal {
		mean = Round(mean, a.config.Rounding)
	}
	return mean, nil
}
