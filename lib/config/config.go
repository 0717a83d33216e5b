// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the rootfs tool.
//
// Configuration is loaded from a single file specified by:
//   - ROOTFS_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. Every setting has a
// working default, so running without a config file is also valid;
// the file only overrides defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the tool's configuration.
type Config struct {
	// Mirror is the default image mirror: a preset name (official,
	// tuna, ustc, bfsu), a user mirror name, or a base URL.
	Mirror string `yaml:"mirror"`

	// UserMirrors is the path of a JSONC file defining named custom
	// mirrors. Empty disables user mirrors.
	UserMirrors string `yaml:"user_mirrors"`

	// Cache configures the on-disk archive cache.
	Cache CacheConfig `yaml:"cache"`
}

// CacheConfig configures the archive cache.
type CacheConfig struct {
	// Root is the cache root directory. Empty selects the
	// conventional location under $XDG_DATA_HOME.
	Root string `yaml:"root"`

	// Keep is the per-distribution entry count retained by prune.
	Keep int `yaml:"keep"`
}

// Default returns the default configuration. These are complete
// working values, not placeholders: a missing config file means
// running on Default() unchanged.
func Default() *Config {
	return &Config{
		Mirror: "official",
		Cache: CacheConfig{
			Keep: 3,
		},
	}
}

// Load loads configuration from the ROOTFS_CONFIG environment
// variable, falling back to Default() when it is unset.
func Load() (*Config, error) {
	path := os.Getenv("ROOTFS_CONFIG")
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file path. The file is
// the single source of truth: environment variables do not override
// its values. ${VAR} references in path fields are expanded for
// portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.Cache.Root = os.ExpandEnv(cfg.Cache.Root)
	cfg.UserMirrors = os.ExpandEnv(cfg.UserMirrors)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Mirror == "" {
		return fmt.Errorf("mirror must not be empty")
	}
	if c.Cache.Keep < 0 {
		return fmt.Errorf("cache.keep must be non-negative, got %d", c.Cache.Keep)
	}
	return nil
}
