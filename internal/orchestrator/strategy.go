// SPDX-License-Identifier: MPL-2.0

package orchestrator

import (
	"github.com/invowk/modpak/internal/layer"
)

const (
	// StrategyCustom merges both-sided text changes line by line and hands
	// colliding files to the codecs.
	StrategyCustom Strategy = iota
	// StrategyTheirs lets the incoming mod win colliding lines.
	StrategyTheirs
	// StrategyOverwrite keeps the baseline content of every file changed on
	// both sides. It never leaves a file unresolved.
	StrategyOverwrite
)

// Strategy is the content bias of one integration pass.
type Strategy int

// String returns the strategy name.
func (s Strategy) String() string {
	switch s {
	case StrategyCustom:
		return "Custom"
	case StrategyTheirs:
		return "Theirs"
	case StrategyOverwrite:
		return "Overwrite"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no strategy follows s.
func (s Strategy) Terminal() bool {
	return s >= StrategyOverwrite
}

// Next returns the strategy to retry with after s. ok is false for the
// terminal strategy.
func (s Strategy) Next() (next Strategy, ok bool) {
	if s.Terminal() {
		return s, false
	}
	return s + 1, true
}

func (s Strategy) favor() layer.Favor {
	switch s {
	case StrategyTheirs:
		return layer.FavorTheirs
	case StrategyOverwrite:
		return layer.FavorOurs
	default:
		return layer.FavorNone
	}
}
