// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		format  string
		verbose bool
		check   func(t *testing.T, out string)
	}{
		{
			name:   "text",
			format: logFormatText,
			check: func(t *testing.T, out string) {
				t.Helper()
				if !strings.Contains(out, "staged mod") || !strings.Contains(out, "mod=a") {
					t.Errorf("text output = %q", out)
				}
			},
		},
		{
			name:   "json",
			format: logFormatJSON,
			check: func(t *testing.T, out string) {
				t.Helper()
				var rec map[string]any
				if err := json.Unmarshal([]byte(out), &rec); err != nil {
					t.Fatalf("json output %q: %v", out, err)
				}
				if rec["msg"] != "staged mod" || rec["mod"] != "a" {
					t.Errorf("json record = %v", rec)
				}
			},
		},
		{
			name:   "logfmt",
			format: logFormatLogfmt,
			check: func(t *testing.T, out string) {
				t.Helper()
				if !strings.Contains(out, `msg="staged mod"`) {
					t.Errorf("logfmt output = %q", out)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger, err := newLogger(&buf, tt.verbose, tt.format)
			if err != nil {
				t.Fatalf("newLogger() error = %v", err)
			}
			logger.Info("staged mod", "mod", "a")
			tt.check(t, buf.String())
		})
	}
}

func TestNewLoggerLevels(t *testing.T) {
	t.Parallel()

	quiet, err := newLogger(&bytes.Buffer{}, false, logFormatText)
	if err != nil {
		t.Fatal(err)
	}
	if quiet.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug enabled without --verbose")
	}

	verbose, err := newLogger(&bytes.Buffer{}, true, logFormatText)
	if err != nil {
		t.Fatal(err)
	}
	if !verbose.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug disabled with --verbose")
	}

	if _, err := newLogger(&bytes.Buffer{}, false, "xml"); err == nil {
		t.Error("newLogger() accepted an unknown format")
	}
}

func TestNewAppDefaults(t *testing.T) {
	t.Parallel()

	app := NewApp(Dependencies{})
	if app.Config == nil || app.Codecs == nil || app.stdout == nil || app.stderr == nil || app.logger == nil {
		t.Errorf("NewApp() left defaults unset: %+v", app)
	}
	if app.logFormat != logFormatText {
		t.Errorf("logFormat = %q, want %q", app.logFormat, logFormatText)
	}
}
