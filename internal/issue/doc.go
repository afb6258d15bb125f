// SPDX-License-Identifier: MPL-2.0

// Package issue holds the user-facing side of modpak errors: ActionableError,
// which names the failed operation with fix-it suggestions, and a catalog of
// Markdown help pages rendered with glamour for the common failure kinds.
package issue
