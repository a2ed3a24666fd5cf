// Package export writes aggregated marks as CSV, either as the full roster
// or merged into a gradebook exported from the course's learning
// management system.
package export

import (
	"fmt"
	"slices"

	"github.com/ahrav/go-prograde/infrastructure/tabular"
	"github.com/ahrav/go-prograde/internal/domain"
)

// Rename maps a roster column to the column name expected by the
// gradebook.
type Rename struct {
	From string
	To   string
}

// WriteRoster writes r to path, restricted to columns when non-empty.
func WriteRoster(path string, r *domain.Roster, columns []string) error {
	records, err := r.Records(columns)
	if err != nil {
		return fmt.Errorf("failed to select output columns: %w", err)
	}
	if err := tabular.WriteFile(path, records); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Merge selects key plus the renamed mark columns from r and inner-joins
// them onto gradebook by key. Output rows follow gradebook order; a
// gradebook row matching several roster rows is repeated once per match.
// Gradebook rows with no roster match are dropped.
func Merge(gradebook *tabular.Table, r *domain.Roster, key string, renames []Rename) (*tabular.Table, error) {
	if key == "" {
		return nil, domain.NewConfigError("export.merge_col", "must be set for merge export")
	}
	if len(renames) == 0 {
		return nil, domain.NewConfigError("export.col_map", "must be set for merge export")
	}
	if !r.HasColumn(key) {
		return nil, domain.NewConfigError("export.merge_col", fmt.Sprintf("column %q not in marks table", key))
	}
	gbKey := gradebook.Index(key)
	if gbKey < 0 {
		return nil, domain.NewConfigError("export.merge_col", fmt.Sprintf("column %q not in gradebook", key))
	}

	columns := slices.Clone(gradebook.Columns)
	for _, rn := range renames {
		if !r.HasColumn(rn.From) {
			return nil, domain.NewConfigError("export.col_map", fmt.Sprintf("column %q not in marks table", rn.From))
		}
		if rn.To == key || slices.Contains(columns, rn.To) {
			return nil, domain.NewConfigError("export.col_map", fmt.Sprintf("output column %q already exists", rn.To))
		}
		columns = append(columns, rn.To)
	}

	byKey := make(map[string][]*domain.Row)
	for _, row := range r.Rows() {
		k := row.Get(key).String()
		byKey[k] = append(byKey[k], row)
	}

	out := &tabular.Table{Columns: columns}
	for _, gbRow := range gradebook.Rows {
		for _, row := range byKey[gbRow[gbKey]] {
			rec := slices.Grow(slices.Clone(gbRow), len(renames))
			for _, rn := range renames {
				rec = append(rec, row.Get(rn.From).String())
			}
			out.Rows = append(out.Rows, rec)
		}
	}
	return out, nil
}

// WriteMerged merges r into gradebook and writes the result to path.
func WriteMerged(path string, gradebook *tabular.Table, r *domain.Roster, key string, renames []Rename) error {
	merged, err := Merge(gradebook, r, key, renames)
	if err != nil {
		return err
	}
	if err := tabular.WriteFile(path, merged.Records()); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
