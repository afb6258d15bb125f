// SPDX-License-Identifier: MPL-2.0

package orchestrator

import (
	"errors"
	"fmt"
)

// ErrMissingVersion is the cause of an unresolved conflict where a file is
// absent on one side.
var ErrMissingVersion = errors.New("file version missing")

type (
	// UnresolvedConflict is a file that the codecs could not merge. Its
	// baseline content was kept in place of a merge.
	UnresolvedConflict struct {
		Path     string
		Mod      string
		Strategy Strategy
		Cause    error
	}

	// SemanticMerge is a file merged by a codec.
	SemanticMerge struct {
		Path  string
		Codec string
		// Ours and Theirs count the changes each side contributed.
		Ours, Theirs int
	}

	// ModReport describes how one mod was staged and integrated.
	ModReport struct {
		Name     string
		Layer    string
		Priority int
		Explicit bool
		// Files is the number of files the mod contained.
		Files int
		// NewFiles and Modified tell which staging checkpoints were committed.
		NewFiles bool
		Modified bool
		// Strategies lists every integration pass in order; the last one was kept.
		Strategies []Strategy
		// Taken lists files changed only by the mod.
		Taken []string
		// TextMerged lists files merged line by line.
		TextMerged []string
		// Semantic lists files merged by a codec.
		Semantic []SemanticMerge
		// Forced lists files whose baseline content won under StrategyOverwrite.
		Forced []string
		// Escalations are the unresolved files of discarded passes.
		Escalations []UnresolvedConflict
		// Unresolved are unresolved files of the kept pass.
		Unresolved []UnresolvedConflict
		Commit     string
	}

	// Report is the outcome of a Run.
	Report struct {
		Name      string
		Workspace string
		// Output is the written archive; empty when packing was disabled.
		Output string
		// Packed is the number of files in the archive.
		Packed int
		Mods   []ModReport
	}
)

// Error implements the error interface.
func (c *UnresolvedConflict) Error() string {
	return fmt.Sprintf("unresolved conflict in %s (mod %s, strategy %s): %v", c.Path, c.Mod, c.Strategy, c.Cause)
}

// Unwrap returns the cause.
func (c *UnresolvedConflict) Unwrap() error { return c.Cause }

// Strategy returns the strategy of the kept integration pass.
func (m *ModReport) Strategy() Strategy {
	if len(m.Strategies) == 0 {
		return StrategyCustom
	}
	return m.Strategies[len(m.Strategies)-1]
}

// Escalated reports whether the mod needed more than one pass.
func (m *ModReport) Escalated() bool {
	return len(m.Strategies) > 1
}

// Forced returns the number of files forced across all mods.
func (r *Report) Forced() int {
	n := 0
	for _, m := range r.Mods {
		n += len(m.Forced) + len(m.Unresolved)
	}
	return n
}
