package domain

import (
	"fmt"
	"slices"
	"strconv"
)

// Value is a single roster cell. The zero Value is absent and renders as
// an empty string.
type Value struct {
	text  string
	num   float64
	isNum bool
	set   bool
}

// Text returns a present textual Value.
func Text(s string) Value { return Value{text: s, set: true} }

// Number returns a present numeric Value.
func Number(f float64) Value { return Value{num: f, isNum: true, set: true} }

// IsSet reports whether the cell holds a value.
func (v Value) IsSet() bool { return v.set }

// Float returns the numeric content of the cell. Text cells that parse as
// numbers are converted; absent cells report false.
func (v Value) Float() (float64, bool) {
	if !v.set {
		return 0, false
	}
	if v.isNum {
		return v.num, true
	}
	f, err := strconv.ParseFloat(v.text, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// String renders the cell for tabular output.
func (v Value) String() string {
	switch {
	case !v.set:
		return ""
	case v.isNum:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	default:
		return v.text
	}
}

// Row is one roster entry keyed by student identifier.
type Row struct {
	ID    string
	cells map[string]Value
}

// Get returns the cell for column; absent columns yield the zero Value.
func (r *Row) Get(column string) Value { return r.cells[column] }

// Roster is the table of known students for a course offering. Column
// order and row order are preserved from the source; aggregation adds
// columns and fills cells but never removes rows.
//
// A Roster is not safe for concurrent mutation.
type Roster struct {
	idColumn string
	columns  []string
	rows     []*Row
	index    map[string]*Row
}

// NewRoster creates an empty roster whose rows are keyed by idColumn.
// idColumn is added to columns when not already listed.
func NewRoster(idColumn string, columns []string) *Roster {
	cols := slices.Clone(columns)
	if !slices.Contains(cols, idColumn) {
		cols = append([]string{idColumn}, cols...)
	}
	return &Roster{
		idColumn: idColumn,
		columns:  cols,
		index:    make(map[string]*Row),
	}
}

// Columns returns a copy of the column names in order.
func (r *Roster) Columns() []string { return slices.Clone(r.columns) }

// HasColumn reports whether column is part of the roster.
func (r *Roster) HasColumn(column string) bool { return slices.Contains(r.columns, column) }

// Len returns the number of rows.
func (r *Roster) Len() int { return len(r.rows) }

// Rows returns the rows in roster order. The slice is a copy; the rows
// themselves are shared.
func (r *Roster) Rows() []*Row { return slices.Clone(r.rows) }

// IDs returns the student identifiers in roster order.
func (r *Roster) IDs() []string {
	ids := make([]string, len(r.rows))
	for i, row := range r.rows {
		ids[i] = row.ID
	}
	return ids
}

// Row returns the row for id.
func (r *Roster) Row(id string) (*Row, bool) {
	row, ok := r.index[id]
	return row, ok
}

// Has reports whether id is a known student.
func (r *Roster) Has(id string) bool {
	_, ok := r.index[id]
	return ok
}

// AddRow appends a student. Cells for unknown columns are ignored; the id
// is always stored under the key column.
func (r *Roster) AddRow(id string, cells map[string]Value) error {
	if _, ok := r.index[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateStudent, id)
	}
	row := &Row{ID: id, cells: make(map[string]Value, len(r.columns))}
	for _, col := range r.columns {
		if v, ok := cells[col]; ok {
			row.cells[col] = v
		}
	}
	row.cells[r.idColumn] = Text(id)
	r.rows = append(r.rows, row)
	r.index[id] = row
	return nil
}

// Set writes value into column for student id, appending the column when
// it does not exist yet.
func (r *Roster) Set(id, column string, value Value) error {
	row, ok := r.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMembership, id)
	}
	r.ensureColumn(column)
	row.cells[column] = value
	return nil
}

// EnsureColumns appends any of columns not yet present, in order.
func (r *Roster) EnsureColumns(columns ...string) {
	for _, c := range columns {
		r.ensureColumn(c)
	}
}

func (r *Roster) ensureColumn(column string) {
	if !slices.Contains(r.columns, column) {
		r.columns = append(r.columns, column)
	}
}

// Drop removes the given students from the roster. Unknown identifiers
// are ignored. Only roster retrieval uses this, to honour configured
// exclusions; aggregation never drops rows.
func (r *Roster) Drop(ids ...string) {
	if len(ids) == 0 {
		return
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
		delete(r.index, id)
	}
	r.rows = slices.DeleteFunc(r.rows, func(row *Row) bool {
		_, ok := drop[row.ID]
		return ok
	})
}

// Subset returns a new roster holding copies of the rows for ids, in the
// order given. Unknown identifiers are skipped.
func (r *Roster) Subset(ids []string) *Roster {
	out := NewRoster(r.idColumn, r.columns)
	for _, id := range ids {
		row, ok := r.index[id]
		if !ok {
			continue
		}
		_ = out.AddRow(id, row.cells)
	}
	return out
}

// Records renders the roster as a header plus one string record per row,
// restricted to columns when non-empty.
func (r *Roster) Records(columns []string) ([][]string, error) {
	if len(columns) == 0 {
		columns = r.columns
	}
	for _, c := range columns {
		if !slices.Contains(r.columns, c) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, c)
		}
	}
	out := make([][]string, 0, len(r.rows)+1)
	out = append(out, slices.Clone(columns))
	for _, row := range r.rows {
		rec := make([]string, len(columns))
		for i, c := range columns {
			rec[i] = row.cells[c].String()
		}
		out = append(out, rec)
	}
	return out, nil
}
