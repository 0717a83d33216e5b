// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mirror

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/tidwall/jsonc"
)

// UserMirrors is a set of named custom mirrors loaded from a
// user-authored file. Names may shadow presets; Resolve checks user
// mirrors first.
type UserMirrors map[string]Mirror

// LoadUserMirrors reads a JSONC file mapping mirror names to base
// URLs:
//
//	{
//	    // self-hosted CDN in front of the official server
//	    "r2": "https://images.example.dev",
//	}
//
// The format is JSON extended with comments and trailing commas, the
// same convention used for other user-authored files in this project.
func LoadUserMirrors(path string) (UserMirrors, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading mirrors file: %w", err)
	}

	var raw map[string]string
	if err := json.Unmarshal(jsonc.ToJSON(data), &raw); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	mirrors := make(UserMirrors, len(raw))
	for name, baseURL := range raw {
		if !strings.Contains(baseURL, "://") {
			return nil, fmt.Errorf("%s: mirror %q: %q is not a URL", path, name, baseURL)
		}
		mirrors[name] = Mirror{name: name, baseURL: strings.TrimRight(baseURL, "/")}
	}
	return mirrors, nil
}

// Resolve maps a name to a mirror, checking user mirrors before
// presets and finally accepting a raw URL.
func (u UserMirrors) Resolve(s string) (Mirror, error) {
	if m, ok := u[s]; ok {
		return m, nil
	}
	return Parse(s)
}

// Names returns the user mirror names in sorted order.
func (u UserMirrors) Names() []string {
	names := make([]string, 0, len(u))
	for name := range u {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
