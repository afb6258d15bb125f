// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for modpak.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand creates the modpak command tree bound to app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &buildFlags{}
	rootCmd := &cobra.Command{
		Use:   "modpak [config-file]",
		Short: "Merge game mods into one archive",
		Long: TitleStyle.Render("modpak") + SubtitleStyle.Render(" - Merge game mods into one archive") + `

modpak stages every mod of a mods directory as a layer of a version
controlled workspace, integrates the layers in priority order and packs
the result. Files changed by several mods are merged field by field for
struct configuration (.cfg), INI and JSON files.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Run modpak once to write a commented modpak.toml
  2. Point 'mods_dir' at a directory of mod folders or archives
  3. Run modpak again to build the modpack

` + SubtitleStyle.Render("Examples:") + `
  modpak                    Build using ./modpak.toml
  modpak build pack.toml    Build using another configuration
  modpak --watch            Rebuild whenever a mod changes
  modpak config show        Show the effective configuration
  modpak pak list out.pak   List the files of an archive`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setupLogging()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), app, flags, args)
		},
	}

	flags.register(rootCmd)
	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable debug logging and full error chains")
	rootCmd.PersistentFlags().StringVar(&app.logFormat, "log-format", logFormatText, "log format: text, json or logfmt")

	rootCmd.AddCommand(newBuildCommand(app))
	rootCmd.AddCommand(newConfigCommand(app))
	rootCmd.AddCommand(newMergeCommand(app))
	rootCmd.AddCommand(newPakCommand(app))
	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits with the code of the failure, if any.
// This is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(func(w io.Writer, _ fang.Styles, err error) {
			if exitCodeFor(err).IsInterrupted() {
				fmt.Fprintln(w, WarningStyle.Render("!")+" Interrupted")
				return
			}
			renderError(w, err, app.verbose)
		}),
	); err != nil {
		if code := exitCodeFor(err); !code.IsSuccess() {
			os.Exit(int(code))
		}
	}
}
