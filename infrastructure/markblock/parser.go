// Package markblock parses the mark block convention used to record
// project marks in the final markdown cell of a notebook.
//
// A mark block looks like:
//
//	## Marks
//
//	* Questions: 9
//	* Analysis: 7.5
//
// Parsing runs in two stages: a header check on the cell, then a line scan
// that keeps well-formed "Category: value" lines and silently skips the
// rest. Skipped lines are never errors.
package markblock

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ahrav/go-prograde/internal/domain"
	"github.com/ahrav/go-prograde/internal/ports"
)

// Header is the exact first line of a mark block.
const Header = "## Marks"

// MarkdownCell is the notebook cell type that may hold a mark block.
const MarkdownCell = "markdown"

// markLine matches an optional bullet, a word token, a colon and a number
// with at most one decimal point. Word tokens may hold any Unicode letter
// or digit, so a misspelt accented category still reaches the validator.
var markLine = regexp.MustCompile(`^\s*(?:[*-]\s*)?([\p{L}\p{N}_]+)\s*:\s*(\d+(?:\.\d*)?|\.\d+)\s*$`)

// ParseCell extracts the mark set from a single cell. ok is false when the
// cell is not a mark block at all; a mark block with no well-formed lines
// yields an empty, non-nil set with ok true.
func ParseCell(cellType, source string) (marks domain.MarkSet, ok bool) {
	body, ok := checkHeader(cellType, source)
	if !ok {
		return nil, false
	}
	return scanLines(body), true
}

// checkHeader is the first parsing stage. It returns the lines following
// the header and its separator line when the cell is a mark block.
func checkHeader(cellType, source string) ([]string, bool) {
	if cellType != MarkdownCell {
		return nil, false
	}
	lines := splitLines(source)
	if len(lines) < 2 || lines[0] != Header {
		return nil, false
	}
	return lines[2:], true
}

// scanLines is the second parsing stage. Later lines for the same category
// overwrite earlier ones.
func scanLines(lines []string) domain.MarkSet {
	marks := make(domain.MarkSet)
	for _, line := range lines {
		m := markLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		marks[domain.Category(m[1])] = v
	}
	return marks
}

// splitLines splits text on line boundaries the way a text editor would:
// "\n", "\r\n" and "\r" all end a line and a final terminator does not
// start a new empty line.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}

// ParseNotebook applies ParseCell to the last cell of a notebook document.
// Cell sources may be stored either as one string or as a list of line
// strings. A notebook without cells has no marks.
func ParseNotebook(data []byte) (domain.MarkSet, bool, error) {
	if !gjson.ValidBytes(data) {
		return nil, false, fmt.Errorf("%w: notebook is not valid JSON", ports.ErrInvalidDocument)
	}
	cells := gjson.GetBytes(data, "cells")
	if !cells.IsArray() {
		return nil, false, fmt.Errorf("%w: notebook has no cells array", ports.ErrInvalidDocument)
	}
	all := cells.Array()
	if len(all) == 0 {
		return nil, false, nil
	}
	last := all[len(all)-1]
	marks, ok := ParseCell(last.Get("cell_type").String(), cellSource(last.Get("source")))
	return marks, ok, nil
}

func cellSource(src gjson.Result) string {
	if !src.IsArray() {
		return src.String()
	}
	var b strings.Builder
	for _, part := range src.Array() {
		b.WriteString(part.String())
	}
	return b.String()
}
