// SPDX-License-Identifier: MPL-2.0

// Package modsrc finds the mods of a modpack, orders them by priority and
// copies their content into a workspace filesystem.
//
// A mod is either a directory or an archive (.pak or .zip) directly inside
// the mods directory. Its name is the directory name, or the archive file
// name without extension.
package modsrc
