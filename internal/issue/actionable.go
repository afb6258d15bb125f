// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

type (
	// ActionableError is a user-facing error: the failed operation, the
	// resource it acted on, hints for fixing it and the underlying cause.
	//
	//	err := issue.NewErrorContext().
	//		WithOperation("load configuration").
	//		WithResource("./modpak.toml").
	//		WithSuggestion("Run 'modpak config init' to create one").
	//		WithIssue(issue.ConfigNotFoundId).
	//		Wrap(originalErr).
	//		Build()
	ActionableError struct {
		// Operation is a verb phrase such as "load configuration".
		Operation string

		// Resource identifies the file, path or mod involved (optional).
		Resource string

		// Suggestions are hints on how to fix the issue (optional).
		Suggestions []string

		// IssueID points at the catalog entry with longer guidance (optional).
		IssueID Id

		// Cause is the underlying error (optional).
		Cause error
	}

	// ErrorContext builds ActionableError values incrementally.
	ErrorContext struct {
		operation   string
		resource    string
		suggestions []string
		issueID     Id
		cause       error
	}
)

// NewErrorContext creates a new ErrorContext builder.
func NewErrorContext() *ErrorContext {
	return &ErrorContext{}
}

// WrapWithOperation wraps err with an operation. It returns nil for a nil err.
func WrapWithOperation(err error, operation string) *ActionableError {
	if err == nil {
		return nil
	}
	return &ActionableError{
		Operation: operation,
		Cause:     err,
	}
}

// WrapWithContext wraps err with an operation and a resource. It returns nil
// for a nil err.
func WrapWithContext(err error, operation, resource string) *ActionableError {
	if err == nil {
		return nil
	}
	return &ActionableError{
		Operation: operation,
		Resource:  resource,
		Cause:     err,
	}
}

// Error returns "failed to <operation>: <resource>: <cause>".
func (e *ActionableError) Error() string {
	var msg strings.Builder

	msg.WriteString("failed to ")
	msg.WriteString(e.Operation)

	if e.Resource != "" {
		msg.WriteString(": ")
		msg.WriteString(e.Resource)
	}

	if e.Cause != nil {
		msg.WriteString(": ")
		msg.WriteString(e.Cause.Error())
	}

	return msg.String()
}

// Unwrap returns the underlying cause error for use with errors.Is/As.
func (e *ActionableError) Unwrap() error {
	return e.Cause
}

// Format returns the error message followed by the suggestions, one per
// line. With verbose set the numbered error chain is appended.
func (e *ActionableError) Format(verbose bool) string {
	var msg strings.Builder

	msg.WriteString(e.Error())

	if len(e.Suggestions) > 0 {
		msg.WriteString("\n")
		for _, suggestion := range e.Suggestions {
			msg.WriteString("\n  • ")
			msg.WriteString(suggestion)
		}
	}

	if verbose && e.Cause != nil {
		msg.WriteString("\n\nError chain:")
		err := e.Cause
		depth := 1
		for err != nil {
			fmt.Fprintf(&msg, "\n  %d. %s", depth, err.Error())
			err = errors.Unwrap(err)
			depth++
		}
	}

	return msg.String()
}

// HasSuggestions returns true if the error has any suggestions.
func (e *ActionableError) HasSuggestions() bool {
	return len(e.Suggestions) > 0
}

// Issue returns the catalog entry of the error, or nil.
func (e *ActionableError) Issue() *Issue {
	if e.IssueID == 0 {
		return nil
	}
	return Get(e.IssueID)
}

// WithOperation sets the operation being performed.
func (c *ErrorContext) WithOperation(op string) *ErrorContext {
	c.operation = op
	return c
}

// WithResource sets the resource (file, path, mod) involved.
func (c *ErrorContext) WithResource(res string) *ErrorContext {
	c.resource = res
	return c
}

// WithSuggestion adds a suggestion. It can be called repeatedly.
func (c *ErrorContext) WithSuggestion(sug string) *ErrorContext {
	c.suggestions = append(c.suggestions, sug)
	return c
}

// WithSuggestions adds multiple suggestions at once.
func (c *ErrorContext) WithSuggestions(sugs ...string) *ErrorContext {
	c.suggestions = append(c.suggestions, sugs...)
	return c
}

// WithIssue links the error to a catalog entry.
func (c *ErrorContext) WithIssue(id Id) *ErrorContext {
	c.issueID = id
	return c
}

// Wrap wraps an underlying error as the cause.
func (c *ErrorContext) Wrap(err error) *ErrorContext {
	c.cause = err
	return c
}

// Build creates an ActionableError from the context.
// Returns nil if no operation is set (operation is required).
func (c *ErrorContext) Build() *ActionableError {
	if c.operation == "" {
		return nil
	}

	return &ActionableError{
		Operation:   c.operation,
		Resource:    c.resource,
		Suggestions: slices.Clone(c.suggestions),
		IssueID:     c.issueID,
		Cause:       c.cause,
	}
}

// BuildError is Build returned as an error, for use in return statements.
// Returns nil if no operation is set.
func (c *ErrorContext) BuildError() error {
	ae := c.Build()
	if ae == nil {
		return nil
	}
	return ae
}
