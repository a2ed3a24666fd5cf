// Package feedback packages a copy of each project, together with the
// student's marks, into a per-student feedback directory.
package feedback

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Output file names written next to the copied project.
const (
	MarksMarkdown = "marks.md"
	MarksHTML     = "marks.html"
	projectDir    = "project"
)

// ErrExists is returned when a student's feedback directory already holds
// a project copy.
var ErrExists = errors.New("feedback already exists")

// Entry is one line of a student's marks table.
type Entry struct {
	Name  string
	Value string
}

// Writer copies projects into <outRoot>/<feedback id>/project and writes
// the marks table beside the copy as Markdown and HTML.
type Writer struct {
	projectRoot string
	outRoot     string
	md          goldmark.Markdown
}

// NewWriter creates a Writer reading projects under projectRoot.
func NewWriter(projectRoot, outRoot string) *Writer {
	return &Writer{
		projectRoot: projectRoot,
		outRoot:     outRoot,
		md:          goldmark.New(goldmark.WithExtensions(extension.Table)),
	}
}

// Write packages project for the student identified by feedbackID and
// returns the directory written.
func (w *Writer) Write(ctx context.Context, feedbackID, project string, entries []Entry) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if feedbackID == "" {
		return "", fmt.Errorf("empty feedback id for project %s", project)
	}

	dst := filepath.Join(w.outRoot, feedbackID, projectDir)
	if _, err := os.Stat(dst); err == nil {
		return "", fmt.Errorf("%w: %s", ErrExists, dst)
	}

	src := filepath.Join(w.projectRoot, project)
	if err := os.CopyFS(dst, os.DirFS(src)); err != nil {
		return "", fmt.Errorf("failed to copy project %s: %w", project, err)
	}

	table := MarksTable(entries)
	if err := os.WriteFile(filepath.Join(dst, MarksMarkdown), []byte(table), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", MarksMarkdown, err)
	}

	var buf bytes.Buffer
	if err := w.md.Convert([]byte(table), &buf); err != nil {
		return "", fmt.Errorf("markdown render: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dst, MarksHTML), buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", MarksHTML, err)
	}
	return dst, nil
}

// MarksTable renders entries as a two-column Markdown table.
func MarksTable(entries []Entry) string {
	var b strings.Builder
	b.WriteString("| Mark | Score |\n|:-----|------:|\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "| %s | %s |\n", escapeCell(e.Name), escapeCell(e.Value))
	}
	return b.String()
}

func escapeCell(s string) string { return strings.ReplaceAll(s, "|", `\|`) }
