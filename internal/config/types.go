// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

var (
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrMissingField is the sentinel error wrapped by MissingFieldError.
	ErrMissingField = errors.New("missing required field")
	// ErrInvalidMountPoint is the sentinel error wrapped by InvalidMountPointError.
	ErrInvalidMountPoint = errors.New("invalid mount point")
)

type (
	// Config is the run configuration of a modpack build.
	Config struct {
		// Name is the modpack name. It names the default output archive.
		Name string `toml:"name" mapstructure:"name" comment:"Modpack name, also used for the default output archive name."`
		// StagingDir holds the layered workspace. It is wiped on every build.
		StagingDir string `toml:"staging_dir" mapstructure:"staging_dir" comment:"Workspace directory. It is deleted and recreated on every build."`
		// ModsDir contains one directory, .pak or .zip per mod.
		ModsDir string `toml:"mods_dir" mapstructure:"mods_dir" comment:"Directory holding the mods: one directory, .pak or .zip archive per mod."`
		// Output is the archive to write; <name>.pak next to the config file
		// when empty.
		Output string `toml:"output,omitempty" mapstructure:"output" comment:"Output archive. Defaults to <name>.pak next to this file."`
		// MountPoint prefixes every entry of the output archive.
		MountPoint string `toml:"mount_point" mapstructure:"mount_point" comment:"Prefix of every entry stored in the output archive."`
		// Priorities overrides the integration order of mods, lowest first.
		// Keys match mod names case-insensitively.
		Priorities map[string]int `toml:"priorities,omitempty" mapstructure:"priorities"`
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig and every field-level validation error.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// MissingFieldError is returned when a required field is empty.
	MissingFieldError struct {
		Field string
	}

	// InvalidMountPointError is returned for mount points that are absolute
	// or do not end in a slash.
	InvalidMountPointError struct {
		Value string
	}
)

// IsValid returns whether the Config has valid fields. Paths are not
// checked against the filesystem.
func (c *Config) IsValid() (bool, []error) {
	var errs []error
	for _, f := range []struct{ name, value string }{
		{"name", c.Name},
		{"staging_dir", c.StagingDir},
		{"mods_dir", c.ModsDir},
	} {
		if strings.TrimSpace(f.value) == "" {
			errs = append(errs, &MissingFieldError{Field: f.name})
		}
	}
	if c.MountPoint != "" && (path.IsAbs(c.MountPoint) || !strings.HasSuffix(c.MountPoint, "/")) {
		errs = append(errs, &InvalidMountPointError{Value: c.MountPoint})
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig and the field errors for errors.Is()
// compatibility.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// Error implements the error interface for MissingFieldError.
func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingField, e.Field)
}

// Unwrap returns ErrMissingField for errors.Is() compatibility.
func (e *MissingFieldError) Unwrap() error { return ErrMissingField }

// Error implements the error interface for InvalidMountPointError.
func (e *InvalidMountPointError) Error() string {
	return fmt.Sprintf("%s %q: must be relative and end with '/'", ErrInvalidMountPoint, e.Value)
}

// Unwrap returns ErrInvalidMountPoint for errors.Is() compatibility.
func (e *InvalidMountPointError) Unwrap() error { return ErrInvalidMountPoint }
