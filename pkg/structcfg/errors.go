// SPDX-License-Identifier: MPL-2.0

package structcfg

import (
	"errors"
	"fmt"
)

var (
	// ErrParse is the root sentinel wrapped by every ParseError.
	ErrParse = errors.New("struct config parse error")

	// ErrUnmatchedEnd is returned for a struct.end with no open struct.
	ErrUnmatchedEnd = fmt.Errorf("%w: struct.end without matching struct.begin", ErrParse)
	// ErrUnclosedStruct is returned when input ends inside a struct.
	ErrUnclosedStruct = fmt.Errorf("%w: struct.begin is never closed", ErrParse)
	// ErrMalformedLine is returned for a line that mentions a struct keyword
	// but is neither a struct header nor a value.
	ErrMalformedLine = fmt.Errorf("%w: malformed struct line", ErrParse)
	// ErrInvalidEncoding is returned for text that is not valid UTF-8.
	ErrInvalidEncoding = fmt.Errorf("%w: invalid UTF-8", ErrParse)

	// ErrCanonicalShape is returned by FromCanonical for values that do not
	// have the canonical document shape.
	ErrCanonicalShape = errors.New("value is not a canonical struct config document")
)

// ParseError describes the line that made Parse fail.
type ParseError struct {
	// Line is the 1-based line number.
	Line int
	// Text is the offending line with surrounding whitespace removed.
	Text string
	// Err is one of the package sentinels.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Text == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d: %v: %q", e.Line, e.Err, e.Text)
}

// Unwrap returns the sentinel so callers can match with errors.Is.
func (e *ParseError) Unwrap() error { return e.Err }
