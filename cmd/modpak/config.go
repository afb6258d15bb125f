// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/invowk/modpak/internal/config"
	"github.com/invowk/modpak/internal/issue"
)

// newConfigCommand creates the `modpak config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the build configuration",
		Long: `Manage the build configuration.

Every subcommand takes an optional configuration file and falls back to
./modpak.toml. Keys can be overridden with MODPAK_<KEY> environment
variables, e.g. MODPAK_STAGING_DIR.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var name string
	initCmd := &cobra.Command{
		Use:   "init [config-file]",
		Short: "Write a commented configuration template",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(app, configOptions(args), name)
		},
	}
	initCmd.Flags().StringVar(&name, "name", defaultModpackName, "modpack name written to the template")
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show [config-file]",
		Short: "Show the effective configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.Context(), app, configOptions(args))
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path [config-file]",
		Short: "Show the configuration file path",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath(app, configOptions(args))
		},
	})

	return cfgCmd
}

func configOptions(args []string) config.LoadOptions {
	if len(args) == 0 {
		return config.LoadOptions{}
	}
	return config.LoadOptions{ConfigFilePath: args[0]}
}

func initConfig(app *App, opts config.LoadOptions, name string) error {
	path := opts.Path()
	if err := config.WriteTemplate(path, name); err != nil {
		if errors.Is(err, os.ErrExist) {
			return issue.NewErrorContext().
				WithOperation("create configuration").
				WithResource(path).
				WithSuggestion("Edit the existing file or remove it first").
				Wrap(err).
				BuildError()
		}
		return err
	}

	fmt.Fprintf(app.stdout, "%s Created configuration template at %s\n", SuccessStyle.Render("✓"), path)
	return nil
}

func showConfig(ctx context.Context, app *App, opts config.LoadOptions) error {
	cfg, err := app.Config.Load(ctx, opts)
	if err != nil {
		return err
	}
	data, err := config.Marshal(cfg)
	if err != nil {
		return err
	}

	fmt.Fprintln(app.stdout, TitleStyle.Render("Current Configuration"))
	fmt.Fprintf(app.stdout, "%s: %s\n\n", CmdStyle.Render("Config file"), opts.Path())
	fmt.Fprint(app.stdout, string(data))
	return nil
}

func showConfigPath(app *App, opts config.LoadOptions) error {
	path, err := filepath.Abs(opts.Path())
	if err != nil {
		return fmt.Errorf("failed to resolve config path: %w", err)
	}

	fmt.Fprintf(app.stdout, "Config file: %s\n", path)
	if !fileExists(path) {
		fmt.Fprintln(app.stdout, SubtitleStyle.Render("(not created yet, run 'modpak config init')"))
	}
	return nil
}
