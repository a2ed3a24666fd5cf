// Package roster loads the class list from a delimited text export.
package roster

import (
	"context"
	"fmt"

	"github.com/ahrav/go-prograde/infrastructure/tabular"
	"github.com/ahrav/go-prograde/internal/domain"
	"github.com/ahrav/go-prograde/internal/ports"
)

var _ ports.RosterSource = (*CSVSource)(nil)

// CSVSource implements ports.RosterSource over a CSV file with one row per
// student. Every column of the file is kept as text.
type CSVSource struct {
	path     string
	idColumn string
	exclude  []string
}

// NewCSVSource creates a roster source reading path, keyed by idColumn and
// dropping the students listed in exclude.
func NewCSVSource(path, idColumn string, exclude []string) *CSVSource {
	return &CSVSource{path: path, idColumn: idColumn, exclude: exclude}
}

// Load reads the roster. Rows with an empty identifier are skipped; a
// repeated identifier is an error.
func (s *CSVSource) Load(ctx context.Context) (*domain.Roster, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tbl, err := tabular.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster: %w", err)
	}

	idx := tbl.Index(s.idColumn)
	if idx < 0 {
		return nil, domain.NewConfigError("student_id_col",
			fmt.Sprintf("column %q not found in roster %s", s.idColumn, s.path))
	}

	r := domain.NewRoster(s.idColumn, tbl.Columns)
	for _, rec := range tbl.Rows {
		id := rec[idx]
		if id == "" {
			continue
		}
		cells := make(map[string]domain.Value, len(rec))
		for i, col := range tbl.Columns {
			cells[col] = domain.Text(rec[i])
		}
		if err := r.AddRow(id, cells); err != nil {
			return nil, fmt.Errorf("roster %s: %w", s.path, err)
		}
	}

	r.Drop(s.exclude...)
	return r, nil
}
