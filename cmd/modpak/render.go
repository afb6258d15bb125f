// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/invowk/modpak/internal/issue"
	"github.com/invowk/modpak/internal/orchestrator"
)

// renderReport prints the outcome of a build. File lists are only printed
// in verbose mode; unresolved files are always listed.
func renderReport(w io.Writer, r *orchestrator.Report, verbose bool) {
	fmt.Fprintln(w, TitleStyle.Render("Modpack ")+CmdStyle.Render(r.Name))
	fmt.Fprintf(w, "%s %s\n\n", renderLabelStyle.Render("Workspace:"), renderValueStyle.Render(r.Workspace))

	for i := range r.Mods {
		renderModReport(w, &r.Mods[i], verbose)
	}

	if r.Output != "" {
		fmt.Fprintf(w, "%s Packed %d files into %s\n", SuccessStyle.Render("✓"), r.Packed, r.Output)
	} else {
		fmt.Fprintf(w, "%s Built without an output archive\n", SuccessStyle.Render("✓"))
	}

	if forced := r.Forced(); forced > 0 {
		fmt.Fprintf(w, "%s %d files kept their earlier version\n", WarningStyle.Render("!"), forced)
		if verbose {
			renderIssue(w, issue.UnresolvedConflictsId)
		}
	}
}

func renderModReport(w io.Writer, m *orchestrator.ModReport, verbose bool) {
	priority := fmt.Sprintf("priority %d", m.Priority)
	if m.Explicit {
		priority += ", explicit"
	}
	fmt.Fprintf(w, "%s %s %s\n", CmdStyle.Render(m.Name), SubtitleStyle.Render(m.Layer), SubtitleStyle.Render("("+priority+")"))

	strategies := make([]string, len(m.Strategies))
	for i, s := range m.Strategies {
		strategies[i] = s.String()
	}
	fmt.Fprintf(w, "  %s %s\n", renderLabelStyle.Render("strategy:"), strings.Join(strategies, " -> "))
	fmt.Fprintf(w, "  %s %d files, %d taken, %d text merged, %d semantic, %d forced\n",
		renderLabelStyle.Render("files:"), m.Files, len(m.Taken), len(m.TextMerged), len(m.Semantic), len(m.Forced)+len(m.Unresolved))

	if verbose {
		renderPaths(w, "taken", m.Taken)
		renderPaths(w, "text", m.TextMerged)
		for _, s := range m.Semantic {
			fmt.Fprintf(w, "    %s %s %s\n", VerboseHighlightStyle.Render("semantic"), s.Path,
				VerboseStyle.Render(fmt.Sprintf("(%s, ours %d, theirs %d)", s.Codec, s.Ours, s.Theirs)))
		}
		for _, e := range m.Escalations {
			fmt.Fprintf(w, "    %s %s %s\n", VerboseHighlightStyle.Render("escalated"), e.Path,
				VerboseStyle.Render(fmt.Sprintf("(%s: %v)", e.Strategy, e.Cause)))
		}
		renderPaths(w, "forced", m.Forced)
	}
	for _, u := range m.Unresolved {
		fmt.Fprintf(w, "    %s %s %s\n", WarningStyle.Render("unresolved"), u.Path, renderHintStyle.Render(u.Cause.Error()))
	}
	fmt.Fprintln(w)
}

func renderPaths(w io.Writer, label string, paths []string) {
	for _, p := range paths {
		fmt.Fprintf(w, "    %s %s\n", VerboseHighlightStyle.Render(label), p)
	}
}
