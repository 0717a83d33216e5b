// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package simplestreams

// Index is the parsed top-level images.json document.
type Index struct {
	// Products maps product keys like "alpine:3.21:amd64:default" to
	// their available builds.
	Products map[string]Product `json:"products"`
}

// Product is one distribution + release + architecture + variant.
type Product struct {
	// Arch is the image-server architecture string ("amd64").
	Arch string `json:"arch"`
	// OS is the OS name ("Alpine").
	OS string `json:"os"`
	// Release is the release identifier ("3.21", "noble").
	Release string `json:"release"`
	// ReleaseTitle is the human-readable release title ("24.04 LTS").
	ReleaseTitle string `json:"release_title"`
	// Variant is the image variant ("default", "cloud").
	Variant string `json:"variant"`
	// Versions maps build serials like "20260218_07:42" to builds.
	Versions map[string]Build `json:"versions"`
}

// Build is one published build of a product.
type Build struct {
	// Items maps item keys ("root.tar.xz") to downloadable files.
	Items map[string]Item `json:"items"`
}

// Item is a downloadable file within a build.
type Item struct {
	// FType is the file type identifier ("root.tar.xz", "lxd.tar.xz").
	FType string `json:"ftype"`
	// SHA256 is the hex digest of the file.
	SHA256 string `json:"sha256"`
	// Size is the file size in bytes.
	Size int64 `json:"size"`
	// Path is the file's path relative to the mirror base URL.
	Path string `json:"path"`
}
