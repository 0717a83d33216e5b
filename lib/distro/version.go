// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package distro

// Version is a distribution version string ("3.21", "24.04",
// "bookworm"). Its meaning is distribution-specific; this package only
// interprets the latest-sentinel values.
type Version string

// String returns the version as given.
func (v Version) String() string { return string(v) }

// IsLatest reports whether the version is a sentinel meaning "the
// newest published build" rather than an exact release.
func (v Version) IsLatest() bool {
	switch v {
	case "current", "latest", "tumbleweed":
		return true
	}
	return false
}
