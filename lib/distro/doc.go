// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package distro defines the closed set of supported Linux
// distributions, their version strings, and target architectures.
//
// The distribution set is fixed at 16 entries and is not extensible at
// runtime: every lookup table in this package (aliases, default
// versions, image-server names, release codenames) is keyed by the
// Distro tag. Version strings are opaque to this package except for a
// small set of sentinel values ("current", "latest", "tumbleweed")
// that mean "the newest published build" rather than an exact release.
package distro
