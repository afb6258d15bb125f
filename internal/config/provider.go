// SPDX-License-Identifier: MPL-2.0

package config

import "context"

// LoadOptions defines explicit configuration loading inputs.
type LoadOptions struct {
	// ConfigFilePath is the file to load; DefaultFileName when empty.
	ConfigFilePath string
}

// Provider loads configuration from explicit options.
type Provider interface {
	Load(ctx context.Context, opts LoadOptions) (*Config, error)
}

type fileProvider struct{}

// NewProvider creates a configuration provider.
func NewProvider() Provider {
	return &fileProvider{}
}

// Load reads configuration from the requested source.
func (p *fileProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	return Load(ctx, opts.Path())
}

// Path returns the configuration file to use.
func (o LoadOptions) Path() string {
	if o.ConfigFilePath == "" {
		return DefaultFileName
	}
	return o.ConfigFilePath
}
