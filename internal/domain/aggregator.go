package domain

// Aggregator combines the component scores of one student into a single
// final score.
// Implementations must reject empty input and non-finite values rather
// than propagate them into the roster.
//
// Example:
//
//	scores := []float64{8, 9, 7, 8, 9, 8, 7}
//	final, err := aggregator.Aggregate(scores) // 8.0
type Aggregator interface {
	Aggregate(scores []float64) (float64, error)
}
