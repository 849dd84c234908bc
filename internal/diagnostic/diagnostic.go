// Package diagnostic collects positioned front-end errors and warnings.
package diagnostic

import (
	"fmt"
	"strings"
)

// Severity represents the severity level of a diagnostic message
type Severity int

const (
	Error Severity = iota
	Warning
)

// String returns the string representation of the severity level
func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	default:
		return "unknown"
	}
}

// Diagnostic is a single message tied to a source position
type Diagnostic struct {
	Severity Severity
	Message  string
	Line     int
	Column   int
	Hint     string // optional suggestion
}

// Diagnostics manages a collection of diagnostic messages
type Diagnostics struct {
	items []Diagnostic
}

// New creates a new empty Diagnostics collection
func New() *Diagnostics {
	return &Diagnostics{}
}

// Errorf adds an error diagnostic with formatted message
func (d *Diagnostics) Errorf(line, col int, format string, args ...interface{}) {
	d.add(Error, line, col, fmt.Sprintf(format, args...), "")
}

// Warningf adds a warning diagnostic with formatted message
func (d *Diagnostics) Warningf(line, col int, format string, args ...interface{}) {
	d.add(Warning, line, col, fmt.Sprintf(format, args...), "")
}

// ErrorWithHint adds an error diagnostic with a suggestion
func (d *Diagnostics) ErrorWithHint(line, col int, msg, hint string) {
	d.add(Error, line, col, msg, hint)
}

func (d *Diagnostics) add(sev Severity, line, col int, msg, hint string) {
	d.items = append(d.items, Diagnostic{
		Severity: sev,
		Message:  msg,
		Line:     line,
		Column:   col,
		Hint:     hint,
	})
}

// Merge appends every diagnostic of other
func (d *Diagnostics) Merge(other *Diagnostics) {
	if other == nil {
		return
	}
	d.items = append(d.items, other.items...)
}

// HasErrors returns true if there are any error-level diagnostics
func (d *Diagnostics) HasErrors() bool {
	return d.ErrorCount() > 0
}

// Errors returns only the error-level diagnostics
func (d *Diagnostics) Errors() []Diagnostic {
	var errs []Diagnostic
	for _, item := range d.items {
		if item.Severity == Error {
			errs = append(errs, item)
		}
	}
	return errs
}

// All returns all diagnostics regardless of severity
func (d *Diagnostics) All() []Diagnostic {
	return d.items
}

// ErrorCount returns the number of error-level diagnostics
func (d *Diagnostics) ErrorCount() int {
	count := 0
	for _, item := range d.items {
		if item.Severity == Error {
			count++
		}
	}
	return count
}

// Format returns human-readable messages, one per line:
//
//	error[counter.clar:3:10]: undeclared variable 'x'
//	  hint: did you mean 'y'?
func (d *Diagnostics) Format(filename string) string {
	lines := make([]string, 0, len(d.items))
	for _, item := range d.items {
		line := fmt.Sprintf("%s[%s:%d:%d]: %s", item.Severity, filename, item.Line, item.Column, item.Message)
		if item.Hint != "" {
			line += "\n  hint: " + item.Hint
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// Err returns nil when there are no errors, otherwise an error carrying
// the formatted diagnostics.
func (d *Diagnostics) Err(filename string) error {
	if !d.HasErrors() {
		return nil
	}
	return &FailedError{Filename: filename, Diagnostics: d}
}

// FailedError adapts a failed Diagnostics collection to the error interface
type FailedError struct {
	Filename    string
	Diagnostics *Diagnostics
}

func (e *FailedError) Error() string {
	return e.Diagnostics.Format(e.Filename)
}
