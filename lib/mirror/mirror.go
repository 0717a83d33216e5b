// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package mirror selects the image server that Simplestreams indexes
// and rootfs archives are fetched from. A Mirror is a pure value: it
// performs no I/O and no caching, it only constructs URLs.
//
// All mirrors serve the same Simplestreams API and image files; the
// choice is about geographic proximity and network conditions.
package mirror

import (
	"fmt"
	"strings"
)

// Mirror is either a built-in named mirror or a custom base URL.
type Mirror struct {
	// name is the preset name, or "custom" for user-supplied URLs.
	name string
	// baseURL is the mirror's base URL without a trailing slash.
	baseURL string
}

// Built-in mirrors.
var (
	// Official is images.linuxcontainers.org (Canada, GeoIP DNS).
	Official = Mirror{name: "official", baseURL: "https://images.linuxcontainers.org"}
	// Tuna is the Tsinghua University TUNA mirror.
	Tuna = Mirror{name: "tuna", baseURL: "https://mirrors.tuna.tsinghua.edu.cn/lxc-images"}
	// Ustc is the University of Science and Technology of China mirror.
	Ustc = Mirror{name: "ustc", baseURL: "https://mirrors.ustc.edu.cn/lxc-images"}
	// Bfsu is the Beijing Foreign Studies University mirror.
	Bfsu = Mirror{name: "bfsu", baseURL: "https://mirrors.bfsu.edu.cn/lxc-images"}
)

// Default returns the mirror used when the caller expresses no
// preference.
func Default() Mirror { return Official }

// Presets returns the built-in named mirrors. Custom mirrors are
// never included.
func Presets() []Mirror {
	return []Mirror{Official, Tuna, Ustc, Bfsu}
}

// Custom returns a mirror for an arbitrary base URL (for example a
// self-hosted CDN). A trailing slash is stripped.
func Custom(baseURL string) Mirror {
	return Mirror{name: "custom", baseURL: strings.TrimRight(baseURL, "/")}
}

// Parse maps a preset name or a URL to a Mirror. Anything containing
// "://" is treated as a custom base URL.
func Parse(s string) (Mirror, error) {
	for _, preset := range Presets() {
		if s == preset.name {
			return preset, nil
		}
	}
	if strings.Contains(s, "://") {
		return Custom(s), nil
	}
	return Mirror{}, fmt.Errorf("unknown mirror %q (presets: official, tuna, ustc, bfsu, or a URL)", s)
}

// Name returns the preset name, or "custom" for custom mirrors.
func (m Mirror) Name() string { return m.name }

// BaseURL returns the mirror's base URL without a trailing slash.
func (m Mirror) BaseURL() string { return m.baseURL }

// StreamsURL returns the Simplestreams index URL for this mirror.
func (m Mirror) StreamsURL() string {
	return m.baseURL + "/streams/v1/images.json"
}

// ImageURL returns the absolute download URL for an image path taken
// from the index.
func (m Mirror) ImageURL(path string) string {
	return m.baseURL + "/" + strings.TrimLeft(path, "/")
}

// String returns the mirror name, with the URL for custom mirrors.
func (m Mirror) String() string {
	if m.name == "custom" {
		return fmt.Sprintf("custom(%s)", m.baseURL)
	}
	return m.name
}
