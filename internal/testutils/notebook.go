// Package testutils provides fixtures and recording fakes shared by the
// package tests: notebook documents, mark blocks and port doubles.
package testutils

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/ahrav/go-prograde/internal/domain"
)

// Cell is one notebook cell fixture.
type Cell struct {
	Type   string
	Source string
	// Lines stores the source as a list of line strings, the other
	// layout notebook writers use, instead of a single string.
	Lines bool
}

// Markdown returns a markdown cell holding source.
func Markdown(source string) Cell { return Cell{Type: "markdown", Source: source} }

// Code returns a code cell holding source.
func Code(source string) Cell { return Cell{Type: "code", Source: source} }

// NotebookJSON encodes cells as a version 4 notebook document.
func NotebookJSON(cells ...Cell) ([]byte, error) {
	type cellDoc struct {
		CellType string         `json:"cell_type"`
		Metadata map[string]any `json:"metadata"`
		Source   any            `json:"source"`
	}
	doc := struct {
		Cells    []cellDoc      `json:"cells"`
		Metadata map[string]any `json:"metadata"`
		Nbformat int            `json:"nbformat"`
		Minor    int            `json:"nbformat_minor"`
	}{Cells: []cellDoc{}, Metadata: map[string]any{}, Nbformat: 4, Minor: 5}

	for _, c := range cells {
		var src any = c.Source
		if c.Lines {
			src = strings.SplitAfter(c.Source, "\n")
		}
		doc.Cells = append(doc.Cells, cellDoc{CellType: c.Type, Metadata: map[string]any{}, Source: src})
	}

	data, err := json.MarshalIndent(doc, "", " ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode notebook: %w", err)
	}
	return data, nil
}

// MarksNotebook returns a notebook whose last cell is the mark block for
// marks.
func MarksNotebook(marks domain.MarkSet) ([]byte, error) {
	return NotebookJSON(Code("import pandas as pd"), Markdown(MarksBlock(marks)))
}

// MarksBlock renders marks as a mark block. Fixed categories come first in
// canonical order, any others follow sorted by name.
func MarksBlock(marks domain.MarkSet) string {
	var b strings.Builder
	b.WriteString("## Marks\n\n")
	written := make(map[domain.Category]struct{}, len(marks))
	for _, c := range domain.Categories() {
		if v, ok := marks[c]; ok {
			fmt.Fprintf(&b, "* %s: %s\n", c, strconv.FormatFloat(v, 'f', -1, 64))
			written[c] = struct{}{}
		}
	}
	for _, c := range marks.Keys() {
		if _, ok := written[c]; !ok {
			fmt.Fprintf(&b, "* %s: %s\n", c, strconv.FormatFloat(marks[c], 'f', -1, 64))
		}
	}
	return b.String()
}

// UniformMarks returns a complete mark set with every category at v.
func UniformMarks(v float64) domain.MarkSet {
	m := make(domain.MarkSet, domain.NumCategories)
	for _, c := range domain.Categories() {
		m[c] = v
	}
	return m
}

// ExampleMarks is a complete mark set that, with a presentation score of
// 8, averages to exactly 8.
func ExampleMarks() domain.MarkSet {
	return domain.MarkSet{
		domain.Questions:       9,
		domain.Analysis:        7,
		domain.Results:         8,
		domain.Readability:     9,
		domain.Writing:         8,
		domain.Reproducibility: 7,
	}
}
