// Package sqlerr defines the error taxonomy shared by every component of
// the editor brain (spec.md §7). Components return these for the failures
// they name, so a caller can switch on type without parsing messages;
// sqlitedb.Open's connection errors are plain wrapped errors, and
// core.ValidateTable returns core.ValidationError. Messages themselves stay plain
// strings suitable for a modal — no stack traces, no framework tokens.
package sqlerr

import "fmt"

// ParseError reports that internal/grammar could not parse a statement.
type ParseError struct {
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s", e.Line, e.Column, e.Message)
}

// ValidationError reports a structural violation caught before any
// statement executes. It has the same fields as core.ValidationError but
// is a separate type: internal/planner's Validate returns this one, while
// core.ValidateTable returns core's.
type ValidationError struct {
	Entity    string
	Name      string
	Offenders []string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("validation error in %s %q", e.Entity, e.Name)
	for _, o := range e.Offenders {
		msg += "\n  - " + o
	}
	return msg
}

// SqlError reports that the database rejected a statement.
type SqlError struct {
	Statement string
	Cause     error
}

func (e *SqlError) Error() string {
	return fmt.Sprintf("sql error executing %q: %v", e.Statement, e.Cause)
}

func (e *SqlError) Unwrap() error { return e.Cause }

// CursorError reports a streaming read failure during row materialisation.
type CursorError struct {
	Cause error
}

func (e *CursorError) Error() string { return fmt.Sprintf("cursor error: %v", e.Cause) }
func (e *CursorError) Unwrap() error { return e.Cause }

// SourceError reports that an import source file was unreadable or
// malformed.
type SourceError struct {
	Path  string
	Cause error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source error reading %q: %v", e.Path, e.Cause)
}

func (e *SourceError) Unwrap() error { return e.Cause }

// ConflictError reports that a lock was held by a different owner.
type ConflictError struct {
	Category string
	Name     string
	Owner    string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %q is currently in use by %s", e.Category, e.Name, e.Owner)
}

// CancelledError reports cooperative cancellation of a background task.
type CancelledError struct {
	Reason string
}

func (e *CancelledError) Error() string {
	if e.Reason == "" {
		return "operation cancelled"
	}
	return "operation cancelled: " + e.Reason
}
