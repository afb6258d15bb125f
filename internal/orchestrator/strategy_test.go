// SPDX-License-Identifier: MPL-2.0

package orchestrator

import (
	"testing"

	"github.com/invowk/modpak/internal/layer"
)

func TestStrategyChain(t *testing.T) {
	t.Parallel()

	var got []Strategy
	s := StrategyCustom
	for {
		got = append(got, s)
		next, ok := s.Next()
		if !ok {
			break
		}
		s = next
		if len(got) > 3 {
			t.Fatal("Next() never reached a terminal strategy")
		}
	}

	want := []Strategy{StrategyCustom, StrategyTheirs, StrategyOverwrite}
	if len(got) != len(want) {
		t.Fatalf("strategy chain = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("strategy chain[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if !StrategyOverwrite.Terminal() {
		t.Error("StrategyOverwrite.Terminal() = false, want true")
	}
}

func TestStrategyStringAndFavor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		strategy  Strategy
		wantName  string
		wantFavor layer.Favor
	}{
		{StrategyCustom, "Custom", layer.FavorNone},
		{StrategyTheirs, "Theirs", layer.FavorTheirs},
		{StrategyOverwrite, "Overwrite", layer.FavorOurs},
		{Strategy(7), "Unknown", layer.FavorNone},
	}
	for _, tt := range tests {
		if got := tt.strategy.String(); got != tt.wantName {
			t.Errorf("Strategy(%d).String() = %q, want %q", int(tt.strategy), got, tt.wantName)
		}
		if got := tt.strategy.favor(); got != tt.wantFavor {
			t.Errorf("Strategy(%d).favor() = %v, want %v", int(tt.strategy), got, tt.wantFavor)
		}
	}
}
