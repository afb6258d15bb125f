// SPDX-License-Identifier: MPL-2.0

// Package config loads the modpak run configuration.
//
// The configuration is a TOML file (modpak.toml by default) read through
// Viper. Every key can be overridden from the environment with the MODPAK_
// prefix, e.g. MODPAK_STAGING_DIR. Relative paths are resolved against the
// directory of the configuration file.
package config
