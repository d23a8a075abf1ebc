package mepsparser

import "fmt"

// ValidationError reports a structural or semantic rule violation:
// a wrong record marker, an unmapped terminal type, a non-numeric
// monetary field, a missing record kind, or a count/total mismatch.
type ValidationError struct {
	// Reason describes the violated rule.
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Reason
}

// validationErrorf builds a ValidationError from a format string.
func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// ParseError annotates a failure while decoding a specific line with
// the 1-based line number and the decoding phase ("header parsing",
// "detail parsing", "trailer parsing", "file parsing"). The wrapped
// error stays reachable through errors.As / errors.Is.
type ParseError struct {
	// Line is the 1-based line number, or 0 when the failure is not
	// tied to a single line.
	Line int
	// Phase names the decoding phase that failed.
	Phase string
	// Err is the underlying failure.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s failed at line %d: %v", e.Phase, e.Line, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Phase, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// ClassificationError reports a line whose leading record-type marker
// does not match any known record kind.
type ClassificationError struct {
	// Line is the 1-based line number.
	Line int
	// Marker is the unrecognized leading character.
	Marker string
}

// Error implements the error interface.
func (e *ClassificationError) Error() string {
	return fmt.Sprintf("invalid record type %q at line %d", e.Marker, e.Line)
}
