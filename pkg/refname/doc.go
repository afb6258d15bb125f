// SPDX-License-Identifier: MPL-2.0

// Package refname turns arbitrary mod and file names into names that are
// valid as version-control branch names.
//
// Normalize is pure and idempotent, so it can be applied to names that were
// already normalized without changing them.
package refname
