package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Common domain errors that abort a grading run. Typed errors below unwrap
// to one of these so callers can classify failures with errors.Is.
var (
	// ErrConfiguration indicates that a required configuration key is
	// missing or holds an unusable value.
	ErrConfiguration = errors.New("configuration error")

	// ErrSchemaViolation indicates that a parsed mark set does not cover
	// the fixed category set exactly.
	ErrSchemaViolation = errors.New("mark schema violation")

	// ErrMembership indicates an unknown student referenced by a project
	// or a student claimed by more than one project.
	ErrMembership = errors.New("membership error")

	// ErrMissingMarks indicates that no notebook of a project carries a
	// mark block.
	ErrMissingMarks = errors.New("missing marks")

	// ErrDuplicateStudent indicates that a roster source lists the same
	// student identifier twice.
	ErrDuplicateStudent = errors.New("duplicate student")

	// ErrUnknownColumn indicates a reference to a column the roster lacks.
	ErrUnknownColumn = errors.New("unknown column")
)

// ConfigError reports a missing or invalid configuration key.
type ConfigError struct {
	// Key is the configuration key involved, e.g. "export.merge_col".
	Key string
	// Reason explains what is wrong with the key.
	Reason string
}

// Error implements the error interface for ConfigError.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: key=%s: %s", e.Key, e.Reason)
}

// Unwrap returns ErrConfiguration.
func (e *ConfigError) Unwrap() error { return ErrConfiguration }

// NewConfigError creates a new ConfigError for the given key.
func NewConfigError(key, reason string) *ConfigError {
	return &ConfigError{Key: key, Reason: reason}
}

// SchemaViolationError reports the categories a project's mark set is
// missing or has in excess of the fixed set.
type SchemaViolationError struct {
	Project string
	Missing []Category
	Extra   []Category
	// Hints maps an extra category to the closest fixed category, when
	// one is close enough to be a likely typo.
	Hints map[Category]Category
}

// Error implements the error interface for SchemaViolationError.
func (e *SchemaViolationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "mark schema violation in project %q", e.Project)
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, ": missing %s", joinCategories(e.Missing))
	}
	if len(e.Extra) > 0 {
		fmt.Fprintf(&b, ": unexpected %s", joinCategories(e.Extra))
		for _, c := range e.Extra {
			if hint, ok := e.Hints[c]; ok {
				fmt.Fprintf(&b, " (%s: did you mean %s?)", c, hint)
			}
		}
	}
	return b.String()
}

// Unwrap returns ErrSchemaViolation.
func (e *SchemaViolationError) Unwrap() error { return ErrSchemaViolation }

func joinCategories(cs []Category) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = string(c)
	}
	return strings.Join(parts, ", ")
}

// MembershipReason classifies a MembershipError.
type MembershipReason string

const (
	// ReasonUnknown marks students absent from the roster.
	ReasonUnknown MembershipReason = "unknown students"
	// ReasonOverlap marks students already claimed by another project.
	ReasonOverlap MembershipReason = "students overlap with another project"
)

// MembershipError reports students that break project membership rules.
type MembershipError struct {
	Project  string
	Students []string
	Reason   MembershipReason
	// Other names the project that first claimed the students, for
	// ReasonOverlap.
	Other string
}

// Error implements the error interface for MembershipError.
func (e *MembershipError) Error() string {
	msg := fmt.Sprintf("%s in project %q: %s", e.Reason, e.Project, strings.Join(e.Students, ", "))
	if e.Other != "" {
		msg += fmt.Sprintf(" (already in %q)", e.Other)
	}
	return msg
}

// Unwrap returns ErrMembership.
func (e *MembershipError) Unwrap() error { return ErrMembership }

// MissingMarksError reports a project whose notebooks carry no mark block.
type MissingMarksError struct {
	Project string
	Path    string
}

// Error implements the error interface for MissingMarksError.
func (e *MissingMarksError) Error() string {
	return fmt.Sprintf("missing project marks for %s (searched %s)", e.Project, e.Path)
}

// Unwrap returns ErrMissingMarks.
func (e *MissingMarksError) Unwrap() error { return ErrMissingMarks }
