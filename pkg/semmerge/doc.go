// SPDX-License-Identifier: MPL-2.0

// Package semmerge implements a three-way structural merge over canonical
// value trees: the values produced by decoding JSON with numbers kept as
// json.Number (objects are map[string]any, arrays are []any).
//
// Merge3 diffs ours and theirs against base into RFC 6902 operation lists
// and applies both to base, ours first and theirs last. When both sides
// change the same field the theirs change is applied last and wins; there
// is no conflict detection below whole-operation failures.
package semmerge
