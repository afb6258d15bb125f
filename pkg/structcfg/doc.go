// SPDX-License-Identifier: MPL-2.0

// Package structcfg reads and writes the nested "struct" configuration format
// used by the game's data tables.
//
// A file is a sequence of lines. Values are written as "name = value" and
// nested blocks open with "name : struct.begin<meta>" and close with
// "struct.end". Comments start with "//".
//
// Struct nodes of a Document live in an arena owned by that Document and are
// addressed through a Handle. Parse builds the tree with an explicit stack of
// open handles, so nodes never point back at their parent.
package structcfg
