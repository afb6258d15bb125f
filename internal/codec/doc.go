// SPDX-License-Identifier: MPL-2.0

// Package codec connects file formats to the semantic merge engine.
//
// Each Codec lowers raw file bytes to a canonical value tree, lets
// semmerge.Merge3 combine the three versions and raises the result back to
// the file format. The Registry picks a codec from a file extension.
package codec
