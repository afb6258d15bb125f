// SPDX-License-Identifier: MPL-2.0

// Package layer provides a versioned workspace in which every mod is staged
// on its own layer (a git branch) and later integrated into the baseline.
//
// The workspace is a plain git repository driven through go-git. Layer
// operations are transactional: a failure leaves the repository in its last
// committed state and is reported as an *OpError wrapping
// ErrLayerOperation.
package layer
