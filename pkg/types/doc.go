// SPDX-License-Identifier: MPL-2.0

// Package types holds small value types shared by the modpak packages.
package types
