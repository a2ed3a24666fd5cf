package ports

import (
	"errors"
	"fmt"
	"strings"
)

// Common infrastructure errors that can occur during external interactions.
var (
	// ErrCommandFailed indicates that an external process exited with a
	// failure status.
	ErrCommandFailed = errors.New("command failed")

	// ErrInvalidDocument indicates that a document could not be decoded.
	ErrInvalidDocument = errors.New("invalid document")
)

// CommandError represents a failed external process invocation.
type CommandError struct {
	// Dir is the working directory of the process.
	Dir string

	// Args is the full command line, program name first.
	Args []string

	// Err is the underlying error, usually an *exec.ExitError.
	Err error
}

// Error implements the error interface for CommandError.
func (e *CommandError) Error() string {
	return fmt.Sprintf("command error: dir=%s, cmd=%q, err=%v", e.Dir, strings.Join(e.Args, " "), e.Err)
}

// Unwrap returns the underlying error.
func (e *CommandError) Unwrap() []error { return []error{ErrCommandFailed, e.Err} }

// NewCommandError creates a new CommandError with the given details.
func NewCommandError(dir string, args []string, err error) *CommandError {
	return &CommandError{Dir: dir, Args: args, Err: err}
}

// MetricsError represents an error from metrics collection operations.
type MetricsError struct {
	// Metric is the name of the metric, or the output target, involved.
	Metric string

	// Operation is the name of the metrics operation that failed.
	Operation string

	// Err is the underlying error that caused the metrics operation to fail.
	Err error
}

// Error implements the error interface for MetricsError.
func (e *MetricsError) Error() string {
	return fmt.Sprintf("metrics error: operation=%s, metric=%s, err=%v", e.Operation, e.Metric, e.Err)
}

// Unwrap returns the underlying error.
func (e *MetricsError) Unwrap() error { return e.Err }

// NewMetricsError creates a new MetricsError with the given details.
func NewMetricsError(metric, operation string, err error) *MetricsError {
	return &MetricsError{
		Metric:    metric,
		Operation: operation,
		Err:       err,
	}
}
