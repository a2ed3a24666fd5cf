// Package ports defines the core interfaces that form the contract between
// the domain/application layers and the infrastructure layer.
// These interfaces enable dependency inversion and make the system testable.
package ports

import (
	"context"
	"time"

	"github.com/ahrav/go-prograde/internal/domain"
)

// MarkLocator finds the mark set recorded in a project directory.
// Implementations read notebook documents and must not modify them.
type MarkLocator interface {
	// Locate returns the first non-empty mark set found under dir.
	// found is false when no candidate document carries a mark block;
	// that is not an error. Unreadable documents are reported as errors.
	Locate(ctx context.Context, dir string) (marks domain.MarkSet, found bool, err error)
}

// MarkValidator checks a parsed mark set against the fixed category set.
type MarkValidator interface {
	// Validate returns a *domain.SchemaViolationError when the key set of
	// marks differs from the fixed categories.
	Validate(project string, marks domain.MarkSet) error
}

// RosterSource produces the table of known students.
type RosterSource interface {
	// Load reads the roster, keyed by the configured student id column,
	// with configured exclusions already removed.
	Load(ctx context.Context) (*domain.Roster, error)
}

// CommandRunner executes external processes on behalf of repository
// maintenance actions.
type CommandRunner interface {
	// Run executes name with args in dir, streaming output to the
	// runner's configured writers.
	Run(ctx context.Context, dir string, name string, args ...string) error
}

// MetricsCollector defines the interface for collecting operational metrics.
// Implementations should integrate with observability platforms like
// Prometheus, OpenTelemetry, or custom monitoring solutions.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	// The labels map provides additional context for the metric.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric.
	RecordGauge(metric string, value float64, labels map[string]string)

	// RecordHistogram records a value in a histogram.
	// This is useful for tracking distributions like final scores.
	RecordHistogram(metric string, value float64, labels map[string]string)
}
