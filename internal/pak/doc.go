// SPDX-License-Identifier: MPL-2.0

// Package pak reads and writes mod archives.
//
// A .pak archive is a tar stream inside an xz container. Every file entry is
// stored under the archive mount point (by default "../../../", relative to
// the game's Paks directory). The last entry is an index listing each file
// with its size and BLAKE3 digest; readers verify it on open.
//
// Zip archives are accepted as read-only mod inputs.
package pak
