// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"

	"github.com/invowk/modpak/internal/codec"
	"github.com/invowk/modpak/internal/config"
)

const (
	logFormatText   = "text"
	logFormatJSON   = "json"
	logFormatLogfmt = "logfmt"
)

type (
	// App wires CLI services and shared dependencies. Every command handler
	// receives the App and writes through its writers.
	App struct {
		Config ConfigProvider
		Codecs *codec.Registry
		stdout io.Writer
		stderr io.Writer

		verbose   bool
		logFormat string
		logger    *slog.Logger
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		Codecs *codec.Registry
		Stdout io.Writer
		Stderr io.Writer
	}

	// ConfigProvider loads the build configuration.
	ConfigProvider = config.Provider
)

// NewApp creates an App from deps.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config:    deps.Config,
		Codecs:    deps.Codecs,
		stdout:    deps.Stdout,
		stderr:    deps.Stderr,
		logFormat: logFormatText,
		logger:    slog.Default(),
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.Codecs == nil {
		app.Codecs = codec.DefaultRegistry()
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

// setupLogging installs a charmbracelet/log handler as the slog default.
func (a *App) setupLogging() error {
	logger, err := newLogger(a.stderr, a.verbose, a.logFormat)
	if err != nil {
		return err
	}
	a.logger = logger
	slog.SetDefault(logger)
	return nil
}

func newLogger(w io.Writer, verbose bool, format string) (*slog.Logger, error) {
	var formatter log.Formatter
	switch format {
	case logFormatText:
		formatter = log.TextFormatter
	case logFormatJSON:
		formatter = log.JSONFormatter
	case logFormatLogfmt:
		formatter = log.LogfmtFormatter
	default:
		return nil, fmt.Errorf("unknown log format %q (want %s, %s or %s)", format, logFormatText, logFormatJSON, logFormatLogfmt)
	}

	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	handler := log.NewWithOptions(w, log.Options{
		Level:           level,
		Formatter:       formatter,
		ReportTimestamp: verbose,
		Prefix:          config.AppName,
	})
	return slog.New(handler), nil
}
