// SPDX-License-Identifier: MPL-2.0

// Package orchestrator builds a modpack: it stages every mod on its own
// layer, integrates the layers into the baseline in priority order, settles
// conflicted files with the format codecs and packs the result.
//
// Integration of one mod starts with StrategyCustom. When a pass leaves a
// file unresolved, the pass is discarded and repeated with the next strategy
// until a pass resolves every file or StrategyOverwrite has run.
package orchestrator
