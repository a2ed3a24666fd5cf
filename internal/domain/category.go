// Package domain contains pure, dependency-free domain models and types
// for the grading engine.
package domain

import (
	"slices"
	"sort"
)

// Category names one of the fixed marking criteria recorded in a project's
// mark block.
type Category string

// The marking criteria every project is assessed against.
const (
	Questions       Category = "Questions"
	Analysis        Category = "Analysis"
	Results         Category = "Results"
	Readability     Category = "Readability"
	Writing         Category = "Writing"
	Reproducibility Category = "Reproducibility"
)

// NumCategories is the size of the fixed category set.
const NumCategories = 6

// categories is the canonical ordering used for output columns and for
// averaging. It is never modified after initialization.
var categories = [NumCategories]Category{
	Questions, Analysis, Results, Readability, Writing, Reproducibility,
}

// Categories returns the fixed category set in canonical order.
// The array is returned by value so callers cannot mutate the shared set.
func Categories() [NumCategories]Category { return categories }

// IsCategory reports whether name is one of the fixed categories.
func IsCategory(name string) bool {
	return slices.Contains(categories[:], Category(name))
}

// MarkSet maps a category to the score awarded for it.
// Once validated, its key set equals the fixed category set exactly.
type MarkSet map[Category]float64

// Keys returns the categories present in the set, sorted by name.
func (m MarkSet) Keys() []Category {
	keys := make([]Category, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Ordered returns the scores in canonical category order. The second
// return value is false if any fixed category is absent.
func (m MarkSet) Ordered() ([NumCategories]float64, bool) {
	var out [NumCategories]float64
	for i, c := range categories {
		v, ok := m[c]
		if !ok {
			return out, false
		}
		out[i] = v
	}
	return out, true
}
