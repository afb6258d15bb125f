// SPDX-License-Identifier: MPL-2.0

package layer

// Favor selects how Merge settles files changed on both sides.
type Favor int

const (
	// FavorNone merges text line by line and leaves colliding hunks conflicted.
	FavorNone Favor = iota
	// FavorTheirs merges text line by line and resolves colliding hunks with
	// the incoming layer's lines.
	FavorTheirs
	// FavorOurs keeps the baseline content of every file changed on both sides.
	FavorOurs
)

// String returns the favor name.
func (f Favor) String() string {
	switch f {
	case FavorNone:
		return "none"
	case FavorTheirs:
		return "theirs"
	case FavorOurs:
		return "ours"
	default:
		return "unknown"
	}
}
