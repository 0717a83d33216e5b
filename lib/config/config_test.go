// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rootfs.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadWithoutEnvUsesDefaults(t *testing.T) {
	t.Setenv("ROOTFS_CONFIG", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Mirror != "official" {
		t.Errorf("mirror = %q, want official", cfg.Mirror)
	}
	if cfg.Cache.Keep != 3 {
		t.Errorf("cache.keep = %d, want 3", cfg.Cache.Keep)
	}
	if cfg.Cache.Root != "" {
		t.Errorf("cache.root = %q, want empty", cfg.Cache.Root)
	}
}

func TestLoadFromEnv(t *testing.T) {
	path := writeConfig(t, "mirror: tuna\ncache:\n  root: /var/cache/rootfs\n  keep: 5\n")
	t.Setenv("ROOTFS_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Mirror != "tuna" {
		t.Errorf("mirror = %q, want tuna", cfg.Mirror)
	}
	if cfg.Cache.Root != "/var/cache/rootfs" {
		t.Errorf("cache.root = %q", cfg.Cache.Root)
	}
	if cfg.Cache.Keep != 5 {
		t.Errorf("cache.keep = %d, want 5", cfg.Cache.Keep)
	}
}

func TestLoadFilePartialOverride(t *testing.T) {
	// Only the mirror is set; everything else keeps its default.
	cfg, err := LoadFile(writeConfig(t, "mirror: https://images.example.dev\n"))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Mirror != "https://images.example.dev" {
		t.Errorf("mirror = %q", cfg.Mirror)
	}
	if cfg.Cache.Keep != 3 {
		t.Errorf("cache.keep = %d, want default 3", cfg.Cache.Keep)
	}
}

func TestLoadFileExpandsVariables(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	cfg, err := LoadFile(writeConfig(t, "cache:\n  root: ${HOME}/rootfs-cache\n"))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Cache.Root != "/home/tester/rootfs-cache" {
		t.Errorf("cache.root = %q", cfg.Cache.Root)
	}
}

func TestLoadFileRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"negative keep", "cache:\n  keep: -1\n", "non-negative"},
		{"empty mirror", "mirror: \"\"\n", "mirror"},
		{"malformed yaml", "mirror: [unclosed\n", "parsing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeConfig(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("missing file should fail")
	}
}
