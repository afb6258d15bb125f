// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"testing"
)

func TestConfig_IsValid(t *testing.T) {
	t.Parallel()

	valid := Config{Name: "p", StagingDir: "s", ModsDir: "m", MountPoint: "../../../"}

	tests := []struct {
		name       string
		mutate     func(*Config)
		wantValid  bool
		wantFields int
		wantErr    error
	}{
		{name: "valid", mutate: func(*Config) {}, wantValid: true},
		{name: "empty mount point", mutate: func(c *Config) { c.MountPoint = "" }, wantValid: true},
		{name: "blank name", mutate: func(c *Config) { c.Name = "  " }, wantFields: 1, wantErr: ErrMissingField},
		{name: "all dirs missing", mutate: func(c *Config) { c.StagingDir, c.ModsDir = "", "" }, wantFields: 2, wantErr: ErrMissingField},
		{name: "absolute mount point", mutate: func(c *Config) { c.MountPoint = "/data/" }, wantFields: 1, wantErr: ErrInvalidMountPoint},
		{name: "mount point without slash", mutate: func(c *Config) { c.MountPoint = "data" }, wantFields: 1, wantErr: ErrInvalidMountPoint},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid
			tt.mutate(&cfg)
			isValid, errs := cfg.IsValid()
			if isValid != tt.wantValid {
				t.Fatalf("IsValid() = %v, want %v (errs: %v)", isValid, tt.wantValid, errs)
			}
			if tt.wantValid {
				return
			}
			if len(errs) != 1 {
				t.Fatalf("IsValid() returned %d errors, want 1", len(errs))
			}
			if !errors.Is(errs[0], ErrInvalidConfig) {
				t.Errorf("error should wrap ErrInvalidConfig, got: %v", errs[0])
			}
			var ice *InvalidConfigError
			if !errors.As(errs[0], &ice) {
				t.Fatalf("error should be *InvalidConfigError, got: %T", errs[0])
			}
			if len(ice.FieldErrors) != tt.wantFields {
				t.Errorf("FieldErrors = %d, want %d", len(ice.FieldErrors), tt.wantFields)
			}
			if !errors.Is(ice.FieldErrors[0], tt.wantErr) {
				t.Errorf("FieldErrors[0] = %v, want %v", ice.FieldErrors[0], tt.wantErr)
			}
		})
	}
}
