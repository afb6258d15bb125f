// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"testing"
)

// runCommand executes the command tree with args and captures its output.
// Commands install the default slog logger, so callers must not run in parallel.
func runCommand(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	var out, errOut bytes.Buffer
	app := NewApp(Dependencies{Stdout: &out, Stderr: &errOut})
	rootCmd := NewRootCommand(app)
	rootCmd.SetArgs(args)
	err = rootCmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestGetVersionString(t *testing.T) {
	// Not parallel: subtests mutate package-level Version/Commit/BuildDate vars.

	t.Run("ldflags version", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version = "v1.2.3"
		Commit = "abc1234"
		BuildDate = "2025-06-15T10:00:00Z"

		got := getVersionString()
		want := "v1.2.3 (commit: abc1234, built: 2025-06-15T10:00:00Z)"
		if got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})

	t.Run("dev build", func(t *testing.T) {
		origVersion := Version
		t.Cleanup(func() { Version = origVersion })

		Version = "dev"
		if got, want := getVersionString(), "dev (built from source)"; got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})
}

func TestRootCommandTree(t *testing.T) {
	t.Parallel()

	rootCmd := NewRootCommand(NewApp(Dependencies{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}))
	for _, path := range [][]string{
		{"build"},
		{"config", "init"},
		{"config", "show"},
		{"config", "path"},
		{"merge"},
		{"pak", "list"},
		{"pak", "extract"},
	} {
		found, _, err := rootCmd.Find(path)
		if err != nil || found.Name() != path[len(path)-1] {
			t.Errorf("Find(%v) = %v, %v", path, found, err)
		}
	}
	for _, path := range [][]string{{}, {"build"}} {
		c, _, _ := rootCmd.Find(path)
		if c.Flags().Lookup("watch") == nil {
			t.Errorf("%q: missing --watch flag", c.CommandPath())
		}
	}
	for _, name := range []string{"verbose", "log-format"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("missing persistent flag --%s", name)
		}
	}
}

func TestUnknownLogFormat(t *testing.T) {
	_, _, err := runCommand(t, "--log-format", "xml", "config", "path")
	if err == nil {
		t.Fatal("expected an error for an unknown log format")
	}
}
