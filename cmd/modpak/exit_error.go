// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/invowk/modpak/internal/config"
	"github.com/invowk/modpak/internal/modsrc"
	"github.com/invowk/modpak/pkg/types"
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE handlers.
type ExitError struct {
	Code types.ExitCode
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// exitCodeFor maps an error returned by the command tree to the process
// exit code.
func exitCodeFor(err error) types.ExitCode {
	var exitErr *ExitError
	switch {
	case err == nil:
		return types.ExitSuccess
	case errors.As(err, &exitErr) && exitErr.Code.Validate() == nil:
		return exitErr.Code
	case errors.Is(err, context.Canceled):
		return types.ExitInterrupted
	case errors.Is(err, config.ErrConfigNotFound),
		errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, modsrc.ErrPriorityConflict):
		return types.ExitUsage
	default:
		return types.ExitFailure
	}
}
