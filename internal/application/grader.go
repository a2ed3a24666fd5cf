// Package application orchestrates grading runs: it checks project
// membership against the roster, folds project marks into the roster and
// drives the export and repository actions.
package application

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/labstack/gommon/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-prograde/infrastructure/metrics"
	"github.com/ahrav/go-prograde/internal/domain"
	"github.com/ahrav/go-prograde/internal/ports"
)

// Columns written onto member rows by Marks, besides the six categories
// and the configured final score column.
const (
	ColProjectName  = "Project name"
	ColPresentation = "Presentation"
	ColContribution = "Contribution"
)

// Grader assembles the marks table for a course. A Grader is used for one
// run by one goroutine.
type Grader struct {
	config     *Config
	roster     ports.RosterSource
	locator    ports.MarkLocator
	validator  ports.MarkValidator
	aggregator domain.Aggregator
	metrics    ports.MetricsCollector
	logger     *log.Logger
	out        io.Writer
	tracer     trace.Tracer
}

// GraderOption configures optional Grader collaborators.
type GraderOption func(*Grader)

// WithLogger sets the logger used for warnings about skipped projects.
func WithLogger(l *log.Logger) GraderOption {
	return func(g *Grader) { g.logger = l }
}

// WithMetrics sets the collector receiving run metrics.
func WithMetrics(m ports.MetricsCollector) GraderOption {
	return func(g *Grader) { g.metrics = m }
}

// WithOutput sets the writer for human readable listings produced by
// Check and Report.
func WithOutput(w io.Writer) GraderOption {
	return func(g *Grader) { g.out = w }
}

// NewGrader creates a Grader over config and its collaborators.
func NewGrader(
	config *Config,
	roster ports.RosterSource,
	locator ports.MarkLocator,
	validator ports.MarkValidator,
	aggregator domain.Aggregator,
	opts ...GraderOption,
) *Grader {
	g := &Grader{
		config:     config,
		roster:     roster,
		locator:    locator,
		validator:  validator,
		aggregator: aggregator,
		metrics:    metrics.Nop{},
		out:        io.Discard,
		tracer:     otel.Tracer("prograde-grader"),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = log.New("grader")
		g.logger.SetOutput(io.Discard)
	}
	return g
}

// Assignment maps a student identifier to the project that claims it.
type Assignment map[string]string

// CheckMembership verifies every project member against r, in project
// order. A member missing from the roster or already claimed by an
// earlier project is reported as a *domain.MembershipError.
func (g *Grader) CheckMembership(r *domain.Roster) (Assignment, error) {
	assigned := make(Assignment)
	for _, p := range g.config.ToProjects() {
		logins := p.Logins()

		var unknown []string
		for _, login := range logins {
			if !r.Has(login) {
				unknown = append(unknown, login)
			}
		}
		if len(unknown) > 0 {
			return nil, &domain.MembershipError{Project: p.Name, Students: unknown, Reason: domain.ReasonUnknown}
		}

		var overlap []string
		var other string
		for _, login := range logins {
			if prev, ok := assigned[login]; ok {
				if other == "" {
					other = prev
				}
				overlap = append(overlap, login)
			}
		}
		if len(overlap) > 0 {
			return nil, &domain.MembershipError{
				Project:  p.Name,
				Students: overlap,
				Reason:   domain.ReasonOverlap,
				Other:    other,
			}
		}

		for _, login := range logins {
			assigned[login] = p.Name
		}
	}
	return assigned, nil
}

// loadChecked loads the roster and checks membership against it.
func (g *Grader) loadChecked(ctx context.Context) (*domain.Roster, Assignment, error) {
	r, err := g.roster.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	assigned, err := g.CheckMembership(r)
	if err != nil {
		return nil, nil, err
	}
	return r, assigned, nil
}

// markColumns returns the columns Marks adds to the roster, in order.
func (g *Grader) markColumns() []string {
	cols := []string{ColProjectName, ColPresentation}
	for _, c := range domain.Categories() {
		cols = append(cols, string(c))
	}
	return append(cols, ColContribution, g.config.MarksCol)
}

// Marks loads the roster and folds every project's marks into it.
//
// Membership is checked before any notebook is read. Projects are then
// processed in configuration order. A project without marks aborts the
// run with a *domain.MissingMarksError unless allowMissing is set, in
// which case it is skipped with a warning and its members keep empty mark
// cells. The final score is computed only for rows that received marks.
func (g *Grader) Marks(ctx context.Context, allowMissing bool) (*domain.Roster, error) {
	start := time.Now()
	ctx, span := g.tracer.Start(ctx, "Grader.Marks")
	defer span.End()
	span.SetAttributes(
		attribute.Int("projects.count", len(g.config.Projects)),
		attribute.Bool("allow_missing", allowMissing),
	)

	r, _, err := g.loadChecked(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	r.EnsureColumns(g.markColumns()...)

	graded := make(map[string]scoreInputs)
	for _, p := range g.config.ToProjects() {
		marks, err := g.gradeProject(ctx, r, p, allowMissing)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		if marks == nil {
			continue
		}
		for _, login := range p.Logins() {
			graded[login] = scoreInputs{presentation: p.Presentation, marks: marks}
		}
	}

	if err := g.finalScores(r, graded); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	g.metrics.RecordGauge(metrics.MetricStudents, float64(len(graded)), map[string]string{"state": "scored"})
	g.metrics.RecordGauge(metrics.MetricStudents, float64(r.Len()-len(graded)), map[string]string{"state": "unscored"})
	g.metrics.RecordLatency("marks", time.Since(start), nil)
	span.SetAttributes(attribute.Int("students.scored", len(graded)))
	span.SetStatus(codes.Ok, "marks aggregated")
	return r, nil
}

// scoreInputs holds what a member's final score is computed from.
type scoreInputs struct {
	presentation float64
	marks        domain.MarkSet
}

// gradeProject writes one project's marks onto its member rows and returns
// the validated marks, or nil when the project was skipped.
func (g *Grader) gradeProject(ctx context.Context, r *domain.Roster, p domain.Project, allowMissing bool) (domain.MarkSet, error) {
	ctx, span := g.tracer.Start(ctx, "Grader.gradeProject", trace.WithAttributes(
		attribute.String("project.name", p.Name),
		attribute.Int("project.members", len(p.Members)),
	))
	defer span.End()

	dir := filepath.Join(g.config.ProjectsPath, p.Name)
	marks, found, err := g.locator.Locate(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", p.Name, err)
	}
	if !found {
		missing := &domain.MissingMarksError{Project: p.Name, Path: dir}
		if !allowMissing {
			return nil, missing
		}
		g.logger.Warnf("%v", missing)
		g.metrics.RecordCounter(metrics.MetricProjects, 1, map[string]string{"status": "missing"})
		span.AddEvent("marks.missing")
		return nil, nil
	}

	if err := g.validator.Validate(p.Name, marks); err != nil {
		return nil, err
	}

	for _, m := range p.Members {
		cells := map[string]domain.Value{
			ColProjectName:  domain.Text(p.Name),
			ColPresentation: domain.Number(p.Presentation),
		}
		for _, c := range domain.Categories() {
			cells[string(c)] = domain.Number(marks[c])
		}
		if m.Contribution != nil {
			cells[ColContribution] = domain.Number(*m.Contribution)
		}
		for col, v := range cells {
			if err := r.Set(m.Login, col, v); err != nil {
				return nil, fmt.Errorf("project %s: %w", p.Name, err)
			}
		}
	}

	g.metrics.RecordCounter(metrics.MetricProjects, 1, map[string]string{"status": "graded"})
	span.SetStatus(codes.Ok, "project graded")
	return marks, nil
}

// finalScores fills the final score column for graded rows from the
// presentation score and the six categories, taken as a fixed tuple.
// Rows are visited in roster order.
func (g *Grader) finalScores(r *domain.Roster, graded map[string]scoreInputs) error {
	for _, row := range r.Rows() {
		in, ok := graded[row.ID]
		if !ok {
			continue
		}
		ordered, ok := in.marks.Ordered()
		if !ok {
			return fmt.Errorf("student %s: %w", row.ID, domain.ErrSchemaViolation)
		}
		scores := make([]float64, 0, 1+domain.NumCategories)
		scores = append(scores, in.presentation)
		scores = append(scores, ordered[:]...)

		final, err := g.aggregator.Aggregate(scores)
		if err != nil {
			return fmt.Errorf("student %s: %w", row.ID, err)
		}
		if err := r.Set(row.ID, g.config.MarksCol, domain.Number(final)); err != nil {
			return err
		}
		g.metrics.RecordHistogram(metrics.MetricFinalScore, final, nil)
	}
	return nil
}

func categoryColumns() []string {
	cats := domain.Categories()
	cols := make([]string, len(cats))
	for i, c := range cats {
		cols[i] = string(c)
	}
	return cols
}
