// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"strconv"
)

// ExitCode is the status modpak exits with. Valid codes are 0-255.
type ExitCode int

// Exit codes of the modpak command.
const (
	ExitSuccess ExitCode = 0
	// ExitFailure covers build, merge and archive failures.
	ExitFailure ExitCode = 1
	// ExitUsage is used for bad arguments and unusable configuration.
	ExitUsage ExitCode = 2
	// ExitInterrupted is 128 + SIGINT.
	ExitInterrupted ExitCode = 130
)

// ErrInvalidExitCode is wrapped by the errors of ExitCode.Validate.
var ErrInvalidExitCode = errors.New("invalid exit code")

// Validate rejects codes a process cannot exit with.
func (c ExitCode) Validate() error {
	if c < 0 || c > 255 {
		return fmt.Errorf("%w %d (must be in range 0-255)", ErrInvalidExitCode, int(c))
	}
	return nil
}

// IsSuccess reports whether c is ExitSuccess.
func (c ExitCode) IsSuccess() bool { return c == ExitSuccess }

// IsInterrupted reports whether c is ExitInterrupted.
func (c ExitCode) IsInterrupted() bool { return c == ExitInterrupted }

func (c ExitCode) String() string { return strconv.Itoa(int(c)) }
