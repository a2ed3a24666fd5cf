// Package tabular reads and writes the delimited text tables exchanged with
// rosters, gradebooks and spreadsheet users.
package tabular

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gocarina/gocsv"
)

// ErrEmptyTable is returned when a source has no header row.
var ErrEmptyTable = errors.New("table has no header row")

// UTF8BOM is stripped from the first header cell; spreadsheet exports
// commonly start with one.
const UTF8BOM = "\ufeff"

// Table is a header plus string records, all of the header's width.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Index returns the position of column, or -1.
func (t *Table) Index(column string) int { return slices.Index(t.Columns, column) }

// Records returns the header followed by the rows.
func (t *Table) Records() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, t.Columns)
	return append(out, t.Rows...)
}

// Read parses a comma-delimited table. Quoting is lenient and leading
// spaces in fields are trimmed.
func Read(r io.Reader) (*Table, error) {
	records, err := gocsv.LazyCSVReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse table: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyTable
	}
	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], UTF8BOM)
	}
	return &Table{Columns: header, Rows: records[1:]}, nil
}

// ReadFile parses the table stored at path.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open table: %w", err)
	}
	defer f.Close()

	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Write emits records as comma-delimited text. No index column is added.
func Write(w io.Writer, records [][]string) error {
	cw := gocsv.DefaultCSVWriter(w)
	for _, rec := range records {
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush records: %w", err)
	}
	return nil
}

// WriteFile writes records to path, creating parent directories. The file
// is written to a temporary sibling first and renamed into place, so a
// failed run leaves any previous output untouched.
func WriteFile(path string, records [][]string) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := Write(tmp, records); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}
