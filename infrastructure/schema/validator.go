// Package schema validates parsed mark sets against the fixed category set.
package schema

import (
	"sort"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"

	"github.com/ahrav/go-prograde/internal/domain"
	"github.com/ahrav/go-prograde/internal/ports"
)

var (
	_ ports.MarkValidator = (*Validator)(nil)

	// foldCaser is a package-level Unicode case folder shared by all
	// similarity computations.
	foldCaser = cases.Fold()
)

// DefaultHintThreshold is the minimum similarity an unexpected category
// must have with a fixed category to be reported as a likely typo.
const DefaultHintThreshold = 0.6

// Validator implements ports.MarkValidator with set equality against
// domain.Categories. It is stateless and safe for concurrent use.
type Validator struct {
	hintThreshold float64
}

// NewValidator creates a Validator. Similarities below threshold produce
// no typo hints; a threshold outside (0, 1] falls back to
// DefaultHintThreshold.
func NewValidator(threshold float64) *Validator {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultHintThreshold
	}
	return &Validator{hintThreshold: threshold}
}

// Validate returns nil when the key set of marks is exactly the fixed
// category set. Otherwise it returns a *domain.SchemaViolationError with
// missing categories in canonical order and extra ones sorted by name.
// Values are not inspected.
func (v *Validator) Validate(project string, marks domain.MarkSet) error {
	var missing []domain.Category
	for _, c := range domain.Categories() {
		if _, ok := marks[c]; !ok {
			missing = append(missing, c)
		}
	}

	var extra []domain.Category
	for c := range marks {
		if !domain.IsCategory(string(c)) {
			extra = append(extra, c)
		}
	}

	if len(missing) == 0 && len(extra) == 0 {
		return nil
	}

	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return &domain.SchemaViolationError{
		Project: project,
		Missing: missing,
		Extra:   extra,
		Hints:   v.hints(extra),
	}
}

// hints maps each unexpected category to the most similar fixed category
// when the similarity reaches the threshold. Ties keep the category that
// comes first in canonical order.
func (v *Validator) hints(extra []domain.Category) map[domain.Category]domain.Category {
	if len(extra) == 0 {
		return nil
	}
	out := make(map[domain.Category]domain.Category)
	for _, e := range extra {
		best, bestScore := domain.Category(""), 0.0
		for _, c := range domain.Categories() {
			if s := similarity(string(e), string(c)); s > bestScore {
				best, bestScore = c, s
			}
		}
		if bestScore >= v.hintThreshold {
			out[e] = best
		}
	}
	return out
}

// similarity returns 1 - distance/maxLen over case-folded strings, in
// [0, 1], where 1 means identical.
func similarity(a, b string) float64 {
	a, b = foldCaser.String(a), foldCaser.String(b)
	if a == b {
		return 1.0
	}

	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 1.0
	}

	s := 1.0 - float64(levenshtein.ComputeDistance(a, b))/float64(maxLen)
	if s < 0 {
		s = 0
	}
	return s
}
