// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/invowk/modpak/internal/config"
	"github.com/invowk/modpak/internal/issue"
	"github.com/invowk/modpak/internal/modsrc"
	"github.com/invowk/modpak/internal/orchestrator"
	"github.com/invowk/modpak/internal/watch"
)

// defaultModpackName names the modpack of a template when the working
// directory has no usable name.
const defaultModpackName = "modpack"

// buildFlags holds the flags shared by `modpak` and `modpak build`.
type buildFlags struct {
	watch bool
}

func (f *buildFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&f.watch, "watch", "w", false, "rebuild whenever a mod or the configuration changes")
}

func newBuildCommand(app *App) *cobra.Command {
	flags := &buildFlags{}
	buildCmd := &cobra.Command{
		Use:   "build [config-file]",
		Short: "Build the modpack (default command)",
		Long: `Build the modpack described by a configuration file.

Without an argument ./modpak.toml is used. When that file does not exist a
commented template is written and nothing is built.

With --watch the modpack is rebuilt whenever the mods directory or the
configuration file changes, until interrupted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), app, flags, args)
		},
	}
	flags.register(buildCmd)
	return buildCmd
}

func runBuild(ctx context.Context, app *App, flags *buildFlags, args []string) error {
	var opts config.LoadOptions
	if len(args) == 1 {
		opts.ConfigFilePath = args[0]
	}
	cfgPath := opts.Path()

	if opts.ConfigFilePath == "" && !fileExists(cfgPath) {
		return writeStarterConfig(app, cfgPath)
	}

	cfg, err := app.Config.Load(ctx, opts)
	if err != nil {
		return err
	}
	err = build(ctx, app, cfg)
	if !flags.watch {
		return err
	}
	if err != nil {
		renderError(app.stderr, err, app.verbose)
	}
	return watchBuild(ctx, app, opts, cfg)
}

// build runs one full build and prints its report.
func build(ctx context.Context, app *App, cfg *config.Config) error {
	if err := cfg.CheckModsDir(); err != nil {
		return err
	}

	mods, err := modsrc.Discover(cfg.ModsDir, app.logger)
	if err != nil {
		return err
	}
	mods, err = modsrc.Prioritize(mods, cfg.Priorities)
	if err != nil {
		return newServiceError(err, issue.ConfigLoadFailedId, "")
	}
	if len(mods) == 0 {
		app.logger.Warn("no mods found", "dir", cfg.ModsDir)
	}

	orch := orchestrator.New(orchestrator.Options{
		Name:       cfg.Name,
		StagingDir: cfg.StagingDir,
		Output:     cfg.Output,
		MountPoint: cfg.MountPoint,
		Codecs:     app.Codecs,
		Logger:     app.logger,
	})
	report, err := orch.Run(ctx, mods)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("build modpack").
			WithResource(cfg.Name).
			WithSuggestion("Run again with --verbose to see every step").
			WithIssue(classifyError(err)).
			Wrap(err).
			BuildError()
	}

	renderReport(app.stdout, report, app.verbose)
	return nil
}

// watchBuild rebuilds the modpack on every change of its inputs until ctx
// is cancelled. The configuration is reloaded before each build; build
// errors are printed and watching goes on.
func watchBuild(ctx context.Context, app *App, opts config.LoadOptions, cfg *config.Config) error {
	var exclude []string
	for _, p := range []string{cfg.StagingDir, cfg.Output} {
		if p != "" {
			exclude = append(exclude, p)
		}
	}

	w, err := watch.New(watch.Config{
		Dirs:    []string{cfg.ModsDir},
		Files:   []string{opts.Path()},
		Exclude: exclude,
		Logger:  app.logger,
		OnChange: func(ctx context.Context, changed []string) error {
			fmt.Fprintf(app.stdout, "%s Detected %d change(s). Rebuilding '%s'...\n",
				VerboseHighlightStyle.Render("→"), len(changed), cfg.Name)
			next, err := app.Config.Load(ctx, opts)
			if err == nil {
				err = build(ctx, app, next)
			}
			if err != nil && ctx.Err() == nil {
				renderError(app.stderr, err, app.verbose)
			}
			fmt.Fprintf(app.stdout, "\n%s Watching for changes...\n\n", VerboseHighlightStyle.Render("→"))
			return nil
		},
	})
	if err != nil {
		return issue.WrapWithContext(err, "start watcher", cfg.ModsDir)
	}

	fmt.Fprintf(app.stdout, "\n%s Watching %s for changes (Ctrl+C to stop)...\n\n", VerboseHighlightStyle.Render("→"), cfg.ModsDir)
	return w.Run(ctx)
}

// writeStarterConfig writes the configuration template to path and tells
// the user to edit it.
func writeStarterConfig(app *App, path string) error {
	name := defaultModpackName
	if abs, err := filepath.Abs(filepath.Dir(path)); err == nil {
		if base := filepath.Base(abs); base != string(filepath.Separator) && base != "." {
			name = base
		}
	}

	if err := config.WriteTemplate(path, name); err != nil {
		return err
	}
	fmt.Fprintf(app.stdout, "%s No %s found, wrote a template to %s\n", WarningStyle.Render("!"), config.DefaultFileName, path)
	fmt.Fprintln(app.stdout, SubtitleStyle.Render("Edit it and run modpak again to build the modpack."))
	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
