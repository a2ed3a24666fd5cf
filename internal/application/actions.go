package application

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/ahrav/go-prograde/infrastructure/export"
	"github.com/ahrav/go-prograde/infrastructure/feedback"
	"github.com/ahrav/go-prograde/internal/domain"
)

// Fixed output files of the listing actions, relative to the working
// directory.
const (
	MissingFile     = "missing.csv"
	ProjectListFile = "project_list.csv"
	ColProject      = "project"
)

// Check verifies membership and lists roster students that belong to no
// project. When there are any, they are written to path as CSV. The
// unassigned students are returned in roster order.
func (g *Grader) Check(ctx context.Context, path string) ([]string, error) {
	r, assigned, err := g.loadChecked(ctx)
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, id := range r.IDs() {
		if _, ok := assigned[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		fmt.Fprintln(g.out, "No missing students")
		return nil, nil
	}

	unassigned := r.Subset(missing)
	fmt.Fprintln(g.out, "Missing students")
	if err := printRoster(g.out, unassigned); err != nil {
		return nil, err
	}
	if path != "" {
		if err := export.WriteRoster(path, unassigned, nil); err != nil {
			return nil, err
		}
	}
	return missing, nil
}

// Report prints each project's name, underlined, followed by its members'
// roster rows.
func (g *Grader) Report(ctx context.Context) error {
	r, _, err := g.loadChecked(ctx)
	if err != nil {
		return err
	}
	for _, p := range g.config.ToProjects() {
		fmt.Fprintln(g.out, p.Name)
		fmt.Fprintln(g.out, strings.Repeat("=", len(p.Name)))
		if err := printRoster(g.out, r.Subset(p.Logins())); err != nil {
			return err
		}
		fmt.Fprintln(g.out)
	}
	return nil
}

// ProjectList returns the roster with a project column naming each
// student's project, empty for unassigned students.
func (g *Grader) ProjectList(ctx context.Context) (*domain.Roster, error) {
	r, assigned, err := g.loadChecked(ctx)
	if err != nil {
		return nil, err
	}
	r.EnsureColumns(ColProject)
	for _, id := range r.IDs() {
		if err := r.Set(id, ColProject, domain.Text(assigned[id])); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// WriteProjectList writes ProjectList to path.
func (g *Grader) WriteProjectList(ctx context.Context, path string) error {
	r, err := g.ProjectList(ctx)
	if err != nil {
		return err
	}
	return export.WriteRoster(path, r, nil)
}

// WriteMarks aggregates marks and writes the roster to the configured
// marks file, restricted to the configured output columns.
func (g *Grader) WriteMarks(ctx context.Context, allowMissing bool) (string, error) {
	r, err := g.Marks(ctx, allowMissing)
	if err != nil {
		return "", err
	}
	path := g.config.MarksFile()
	if err := export.WriteRoster(path, r, g.config.OutputColumns); err != nil {
		return "", err
	}
	return path, nil
}

// ExportMarks aggregates marks and merges them into the configured
// gradebook export.
func (g *Grader) ExportMarks(ctx context.Context, allowMissing bool) (string, error) {
	if g.config.CanvasExportPath == "" {
		return "", domain.NewConfigError("canvas_export_path", `set "canvas_export_path" in config`)
	}
	ec := g.config.Export
	if ec.MergeCol == "" {
		return "", domain.NewConfigError("export.merge_col", "must be set for merge export")
	}
	if len(ec.ColMap) == 0 {
		return "", domain.NewConfigError("export.col_map", "must be set for merge export")
	}

	r, err := g.Marks(ctx, allowMissing)
	if err != nil {
		return "", err
	}
	gradebook, err := export.LoadCanvasGradebook(g.config.CanvasExportPath)
	if err != nil {
		return "", err
	}
	if err := export.WriteMerged(ec.Fname, gradebook, r, ec.MergeCol, ec.ColMap); err != nil {
		return "", err
	}
	return ec.Fname, nil
}

// WriteFeedback aggregates marks, with missing marks treated as fatal, and
// packages each scored student's project copy and marks under outPath.
// Directories are named by the student's feedback id column.
func (g *Grader) WriteFeedback(ctx context.Context, outPath string) ([]string, error) {
	r, err := g.Marks(ctx, false)
	if err != nil {
		return nil, err
	}
	if !r.HasColumn(g.config.FeedbackIDCol) {
		return nil, domain.NewConfigError("feedback_id_col",
			fmt.Sprintf("column %q not in roster", g.config.FeedbackIDCol))
	}

	w := feedback.NewWriter(g.config.ProjectsPath, outPath)
	entryCols := append([]string{ColPresentation}, categoryColumns()...)
	entryCols = append(entryCols, ColContribution, g.config.MarksCol)

	var written []string
	for _, row := range r.Rows() {
		project := row.Get(ColProjectName)
		if !project.IsSet() || !row.Get(g.config.MarksCol).IsSet() {
			continue
		}
		entries := make([]feedback.Entry, len(entryCols))
		for i, col := range entryCols {
			entries[i] = feedback.Entry{Name: col, Value: row.Get(col).String()}
		}
		id := row.Get(g.config.FeedbackIDCol).String()
		dir, err := w.Write(ctx, id, project.String(), entries)
		if err != nil {
			return written, fmt.Errorf("student %s: %w", row.ID, err)
		}
		written = append(written, dir)
	}
	return written, nil
}

func printRoster(w io.Writer, r *domain.Roster) error {
	records, err := r.Records(nil)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, rec := range records {
		fmt.Fprintln(tw, strings.Join(rec, "\t"))
	}
	return tw.Flush()
}
