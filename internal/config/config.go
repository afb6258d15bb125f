// SPDX-License-Identifier: MPL-2.0

package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/invowk/modpak/internal/issue"
	"github.com/invowk/modpak/internal/pak"
)

const (
	// AppName is the application name.
	AppName = "modpak"
	// DefaultFileName is the configuration file used when none is given.
	DefaultFileName = AppName + ".toml"
	// EnvPrefix prefixes the environment variables overriding config keys.
	EnvPrefix = "MODPAK"
)

// ErrConfigNotFound is returned by Load when the file does not exist.
var ErrConfigNotFound = errors.New("config file not found")

const templateHeader = `# modpak build configuration.
# Relative paths are resolved against the directory of this file.
# Every key can be overridden with a MODPAK_<KEY> environment variable.

`

const prioritiesExample = `
# Integration order of mods, lowest first. Mods not listed keep their
# position in the mods directory (0, 1, 2, ...) as priority. Names match
# case-insensitively.
# [priorities]
# base_overhaul = -10
# late_patch = 100
`

// DefaultConfig returns the configuration written by Template.
func DefaultConfig(name string) *Config {
	return &Config{
		Name:       name,
		StagingDir: "staging",
		ModsDir:    "mods",
		MountPoint: pak.DefaultMountPoint,
	}
}

// Load reads the configuration file at path, applies environment overrides
// and resolves relative paths against the file's directory.
func Load(ctx context.Context, path string) (*Config, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	if !fileExists(path) {
		return nil, issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(path).
			WithSuggestion("Verify the file path is correct").
			WithSuggestion("Run 'modpak config init' to create a configuration file").
			WithIssue(issue.ConfigNotFoundId).
			Wrap(fmt.Errorf("%w: %s", ErrConfigNotFound, path)).
			BuildError()
	}

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(path).
			WithSuggestion("Check that the file contains valid TOML").
			WithSuggestion("Run 'modpak config init <file>' to see a commented example").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(err).
			BuildError()
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w: %w", ErrInvalidConfig, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}
	cfg.resolvePaths(filepath.Dir(abs))

	if valid, errs := cfg.IsValid(); !valid {
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(path).
			WithSuggestions(
				"Set 'name', 'staging_dir' and 'mods_dir' in the configuration file",
				"Mount points are relative and end with '/', e.g. \"../../../\"",
			).
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(errs[0]).
			BuildError()
	}
	return &cfg, nil
}

// keyDelimiter separates nested viper keys. Mod names under [priorities]
// may contain dots, so the default "." cannot be used.
const keyDelimiter = "::"

// newViper returns a Viper instance with defaults and environment
// overrides for every key.
func newViper() *viper.Viper {
	v := viper.NewWithOptions(viper.KeyDelimiter(keyDelimiter))
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(keyDelimiter, "_", ".", "_", " ", "_"))
	v.AutomaticEnv()

	v.SetDefault("name", "")
	v.SetDefault("staging_dir", "")
	v.SetDefault("mods_dir", "")
	v.SetDefault("output", "")
	v.SetDefault("mount_point", pak.DefaultMountPoint)
	return v
}

// resolvePaths makes the paths of c absolute relative to dir and fills in
// the default output archive.
func (c *Config) resolvePaths(dir string) {
	if c.Output == "" && strings.TrimSpace(c.Name) != "" {
		c.Output = c.Name + pak.ExtPak
	}
	for _, p := range []*string{&c.StagingDir, &c.ModsDir, &c.Output} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}

// Template returns a commented configuration file for a modpack.
func Template(name string) ([]byte, error) {
	data, err := toml.Marshal(DefaultConfig(name))
	if err != nil {
		return nil, fmt.Errorf("failed to render config template: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString(templateHeader)
	buf.Write(data)
	buf.WriteString(prioritiesExample)
	return buf.Bytes(), nil
}

// Marshal renders the configuration as TOML.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to render config: %w", err)
	}
	return data, nil
}

// WriteTemplate writes Template(name) to path. An existing file is left
// untouched and reported with os.ErrExist.
func WriteTemplate(path, name string) error {
	data, err := Template(name)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// CheckModsDir reports whether the mods directory exists.
func (c *Config) CheckModsDir() error {
	info, err := os.Stat(c.ModsDir)
	if err == nil && !info.IsDir() {
		err = fmt.Errorf("%s is not a directory", c.ModsDir)
	}
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("read mods directory").
			WithResource(c.ModsDir).
			WithSuggestion("Create the directory and put one folder or archive per mod in it").
			WithSuggestion("Check 'mods_dir' in the configuration file").
			WithIssue(issue.ModsDirNotFoundId).
			Wrap(err).
			BuildError()
	}
	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}
