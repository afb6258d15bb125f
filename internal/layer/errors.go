// SPDX-License-Identifier: MPL-2.0

package layer

import (
	"errors"
	"fmt"
)

// ErrLayerOperation is matched by every *OpError.
var ErrLayerOperation = errors.New("layer operation failed")

// OpError reports a failed operation of the version-control substrate.
// These errors are fatal to a run.
type OpError struct {
	// Op names the workspace operation, e.g. "checkout" or "commit".
	Op string
	// Layer is the layer or path the operation was acting on (optional).
	Layer string
	Err   error
}

// Error implements the error interface.
func (e *OpError) Error() string {
	if e.Layer == "" {
		return fmt.Sprintf("layer %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("layer %s %s: %v", e.Op, e.Layer, e.Err)
}

// Unwrap returns the underlying go-git or filesystem error.
func (e *OpError) Unwrap() error { return e.Err }

// Is reports whether target is ErrLayerOperation.
func (e *OpError) Is(target error) bool { return target == ErrLayerOperation }

func opError(op, layer string, err error) error {
	return &OpError{Op: op, Layer: layer, Err: err}
}
