package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/ahrav/go-prograde/infrastructure/tabular"
)

// canvasIdentity lists the student identity columns of a Canvas gradebook
// export, in export order. Assignment columns are dropped on load.
var canvasIdentity = []string{"Student", "ID", "SIS User ID", "SIS Login ID", "Section"}

// pointsPossible labels the row Canvas inserts below the header.
const pointsPossible = "Points Possible"

// canvasStudent is one gradebook row reduced to its identity columns.
type canvasStudent struct {
	Student    string `csv:"Student"`
	ID         string `csv:"ID"`
	SISUserID  string `csv:"SIS User ID"`
	SISLoginID string `csv:"SIS Login ID"`
	Section    string `csv:"Section"`
}

// field returns the value of an identity column.
func (s *canvasStudent) field(column string) string {
	switch column {
	case "Student":
		return s.Student
	case "ID":
		return s.ID
	case "SIS User ID":
		return s.SISUserID
	case "SIS Login ID":
		return s.SISLoginID
	case "Section":
		return s.Section
	}
	return ""
}

// LoadCanvasGradebook reads a Canvas gradebook export and reduces it to
// the student identity columns present in its header, dropping the
// "Points Possible" row.
func LoadCanvasGradebook(path string) (*tabular.Table, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read gradebook: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte(tabular.UTF8BOM))

	header, err := tabular.Read(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to read gradebook %s: %w", path, err)
	}
	var columns []string
	for _, col := range canvasIdentity {
		if header.Index(col) >= 0 {
			columns = append(columns, col)
		}
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("gradebook has none of the identity columns %s", strings.Join(canvasIdentity, ", "))
	}

	var students []*canvasStudent
	if err := gocsv.UnmarshalBytes(data, &students); err != nil {
		return nil, fmt.Errorf("failed to parse gradebook %s: %w", path, err)
	}
	return minimalGradebook(columns, students), nil
}

func minimalGradebook(columns []string, students []*canvasStudent) *tabular.Table {
	out := &tabular.Table{Columns: columns}
	for _, s := range students {
		if strings.TrimSpace(s.Student) == pointsPossible {
			continue
		}
		rec := make([]string, len(columns))
		for i, col := range columns {
			rec[i] = s.field(col)
		}
		out.Rows = append(out.Rows, rec)
	}
	return out
}
