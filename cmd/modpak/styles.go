// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/charmbracelet/lipgloss"

// Palette for dark terminals.
const (
	colorPurple = lipgloss.Color("#7C3AED")
	colorGray   = lipgloss.Color("#6B7280")
	colorGreen  = lipgloss.Color("#10B981")
	colorRed    = lipgloss.Color("#EF4444")
	colorAmber  = lipgloss.Color("#F59E0B")
	colorBlue   = lipgloss.Color("#3B82F6")
	colorSilver = lipgloss.Color("#9CA3AF")
)

var (
	// TitleStyle renders the modpack name and section titles.
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorPurple)

	// SubtitleStyle renders layer names, priorities and usage notes.
	SubtitleStyle = lipgloss.NewStyle().Foreground(colorGray)

	// SuccessStyle renders the ✓ of a finished build, extraction or init.
	SuccessStyle = lipgloss.NewStyle().Foreground(colorGreen)

	// WarningStyle renders the ! of forced files, unresolved files and
	// written templates.
	WarningStyle = lipgloss.NewStyle().Foreground(colorAmber)

	// CmdStyle renders mod names and config keys.
	CmdStyle = lipgloss.NewStyle().Foreground(colorBlue)

	// VerboseStyle renders the details printed with --verbose.
	VerboseStyle = lipgloss.NewStyle().Foreground(colorSilver)

	// VerboseHighlightStyle renders the file kind tags of verbose reports
	// and the watch mode arrows.
	VerboseHighlightStyle = lipgloss.NewStyle().Foreground(colorBlue)

	renderHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(colorRed)
	renderLabelStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorAmber)
	renderValueStyle  = lipgloss.NewStyle().Foreground(colorSilver)
	renderHintStyle   = lipgloss.NewStyle().Foreground(colorGray).Italic(true)
)
