// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/invowk/modpak/internal/codec"
	"github.com/invowk/modpak/internal/config"
	"github.com/invowk/modpak/internal/issue"
	"github.com/invowk/modpak/internal/layer"
	"github.com/invowk/modpak/internal/modsrc"
	"github.com/invowk/modpak/internal/pak"
)

// ServiceError is an error that carries optional rendering information for
// the CLI layer. When the CLI layer receives a ServiceError, it renders the
// styled error message (if present) before formatting the underlying error.
// Always create via newServiceError to enforce the Err-must-be-non-nil invariant.
type ServiceError struct {
	// Err is the underlying error (must not be nil).
	Err error
	// IssueID is the optional issue catalog ID for rendering help text.
	IssueID issue.Id
	// StyledMessage is the optional pre-rendered styled error text.
	StyledMessage string
}

// newServiceError creates a ServiceError with a nil-Err panic guard.
// All construction sites must use this instead of struct literals.
func newServiceError(err error, issueID issue.Id, styledMessage string) *ServiceError {
	if err == nil {
		panic("ServiceError: Err must not be nil")
	}
	return &ServiceError{
		Err:           err,
		IssueID:       issueID,
		StyledMessage: styledMessage,
	}
}

// Error implements the error interface.
func (e *ServiceError) Error() string { return e.Err.Error() }

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *ServiceError) Unwrap() error { return e.Err }

// classifyError picks the issue catalog entry explaining err. Zero means
// no entry applies.
func classifyError(err error) issue.Id {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) && svcErr.IssueID != 0 {
		return svcErr.IssueID
	}
	var ae *issue.ActionableError
	if errors.As(err, &ae) && ae.IssueID != 0 {
		return ae.IssueID
	}

	switch {
	case errors.Is(err, os.ErrPermission):
		return issue.PermissionDeniedId
	case errors.Is(err, config.ErrConfigNotFound):
		return issue.ConfigNotFoundId
	case errors.Is(err, config.ErrInvalidConfig), errors.Is(err, modsrc.ErrPriorityConflict):
		return issue.ConfigLoadFailedId
	case errors.Is(err, modsrc.ErrModsDir):
		return issue.ModsDirNotFoundId
	case errors.Is(err, layer.ErrLayerOperation):
		return issue.LayerOperationFailedId
	case errors.Is(err, codec.ErrDecode):
		return issue.ModContentInvalidId
	case errors.Is(err, pak.ErrCorruptArchive),
		errors.Is(err, pak.ErrUnsupportedArchive),
		errors.Is(err, pak.ErrInvalidEntryName),
		errors.Is(err, pak.ErrEntryNotFound):
		return issue.ArchiveFailedId
	default:
		return 0
	}
}

// renderError writes err and the matching issue help to w. It is the
// error handler of the command tree.
func renderError(w io.Writer, err error, verbose bool) {
	if err == nil {
		return
	}

	var svcErr *ServiceError
	if errors.As(err, &svcErr) && svcErr.StyledMessage != "" {
		fmt.Fprint(w, svcErr.StyledMessage)
	}
	fmt.Fprintln(w, renderHeaderStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))

	renderIssue(w, classifyError(err))
}

// renderIssue renders the optional issue help section.
func renderIssue(w io.Writer, id issue.Id) {
	if id == 0 {
		return
	}
	if catalogEntry := issue.Get(id); catalogEntry != nil {
		rendered, renderErr := catalogEntry.Render("dark")
		if renderErr != nil {
			slog.Warn("failed to render issue catalog entry", "issueID", id, "error", renderErr)
		} else {
			fmt.Fprint(w, rendered)
		}
	}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
