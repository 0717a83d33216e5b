// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package provider resolves official per-distribution mirror URLs and
// parses the published checksum manifests that accompany them.
//
// Unlike the Simplestreams image server, which covers all supported
// distributions through one protocol, official mirrors are described
// by static templates: a URL pattern for the rootfs archive, an
// optional URL pattern for the checksum manifest, and the manifest's
// format and hash algorithm. Only Alpine, Ubuntu, Debian, and Fedora
// publish rootfs archives in a shape this package can consume; the
// template table is consumed as opaque input data and adding a
// distribution means adding a table entry, not code.
package provider

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bureau-foundation/rootfs/lib/distro"
)

// HashAlgorithm identifies the digest algorithm a checksum manifest
// uses.
type HashAlgorithm int

const (
	// SHA256 is used by most distributions.
	SHA256 HashAlgorithm = iota
	// SHA512 is used by Debian's SHA512SUMS manifests.
	SHA512
)

// ManifestFormat identifies how a checksum manifest is laid out.
type ManifestFormat int

const (
	// SingleEntry manifests hold one file: the first
	// whitespace-delimited token on the first line is the hash.
	// Used by Alpine's per-file .sha256 manifests.
	SingleEntry ManifestFormat = iota
	// GNUCoreutils manifests hold "<hash> *<filename>" or
	// "<hash>  <filename>" lines. Used by Ubuntu and Debian.
	GNUCoreutils
	// BSD manifests hold "SHA256 (<filename>) = <hash>" lines.
	// Used by Fedora.
	BSD
)

// ErrChecksumParse is returned when a manifest cannot be parsed or
// the target filename is not listed in it.
var ErrChecksumParse = errors.New("checksum manifest: filename not found or malformed")

// archNaming selects how the architecture appears in URL templates.
type archNaming int

const (
	archLinux  archNaming = iota // aarch64 / x86_64
	archDebian                   // arm64 / amd64
)

// spec is the static description of one distribution's official
// mirror. Template placeholders: {version}, {arch}, {codename},
// {major_minor}.
type spec struct {
	rootfsURL      string
	checksumURL    string // empty when the mirror publishes none
	manifestFormat ManifestFormat
	hashAlgorithm  HashAlgorithm
	archNaming     archNaming
	// majorMinor derives {major_minor} by truncating the version to
	// two components ("3.21.3" → "3.21").
	majorMinor bool
}

var specs = map[distro.Distro]spec{
	distro.Alpine: {
		rootfsURL:      "https://dl-cdn.alpinelinux.org/alpine/v{major_minor}/releases/{arch}/alpine-minirootfs-{version}-{arch}.tar.gz",
		checksumURL:    "https://dl-cdn.alpinelinux.org/alpine/v{major_minor}/releases/{arch}/alpine-minirootfs-{version}-{arch}.tar.gz.sha256",
		manifestFormat: SingleEntry,
		hashAlgorithm:  SHA256,
		archNaming:     archLinux,
		majorMinor:     true,
	},
	distro.Ubuntu: {
		rootfsURL:      "https://cloud-images.ubuntu.com/{codename}/current/{codename}-server-cloudimg-{arch}-root.tar.xz",
		checksumURL:    "https://cloud-images.ubuntu.com/{codename}/current/SHA256SUMS",
		manifestFormat: GNUCoreutils,
		hashAlgorithm:  SHA256,
		archNaming:     archDebian,
	},
	distro.Debian: {
		rootfsURL:      "https://cloud.debian.org/images/cloud/{codename}/latest/debian-{version}-nocloud-{arch}.tar.xz",
		checksumURL:    "https://cloud.debian.org/images/cloud/{codename}/latest/SHA512SUMS",
		manifestFormat: GNUCoreutils,
		hashAlgorithm:  SHA512,
		archNaming:     archDebian,
	},
	distro.Fedora: {
		rootfsURL:      "https://download.fedoraproject.org/pub/fedora/linux/releases/{version}/Cloud/{arch}/images/Fedora-Cloud-Base-{version}-1.2.{arch}.raw.xz",
		checksumURL:    "https://download.fedoraproject.org/pub/fedora/linux/releases/{version}/Cloud/{arch}/images/Fedora-Cloud-{version}-1.2-{arch}-CHECKSUM",
		manifestFormat: BSD,
		hashAlgorithm:  SHA256,
		archNaming:     archLinux,
	},
}

// Provider resolves URLs and parses checksum manifests for one
// distribution's official mirror.
type Provider struct {
	distro distro.Distro
	spec   spec
}

// Official returns the provider for a distribution's official mirror,
// or false for the distributions that only publish through the image
// server.
func Official(d distro.Distro) (*Provider, bool) {
	s, ok := specs[d]
	if !ok {
		return nil, false
	}
	return &Provider{distro: d, spec: s}, true
}

// RootfsURL returns the archive download URL for a version and
// architecture.
func (p *Provider) RootfsURL(v distro.Version, a distro.Architecture) string {
	return p.expand(p.spec.rootfsURL, v, a)
}

// ChecksumURL returns the checksum manifest URL, or false when the
// mirror publishes none.
func (p *Provider) ChecksumURL(v distro.Version, a distro.Architecture) (string, bool) {
	if p.spec.checksumURL == "" {
		return "", false
	}
	return p.expand(p.spec.checksumURL, v, a), true
}

// HashAlgorithm returns the algorithm the manifest's digests use.
func (p *Provider) HashAlgorithm() HashAlgorithm { return p.spec.hashAlgorithm }

func (p *Provider) expand(template string, v distro.Version, a distro.Architecture) string {
	archName := a.String()
	if p.spec.archNaming == archDebian {
		archName = a.DebName()
	}

	expanded := strings.ReplaceAll(template, "{version}", string(v))
	expanded = strings.ReplaceAll(expanded, "{arch}", archName)
	expanded = strings.ReplaceAll(expanded, "{codename}", p.distro.Release(v))
	expanded = strings.ReplaceAll(expanded, "{major_minor}", majorMinor(string(v), p.spec.majorMinor))
	return expanded
}

func majorMinor(version string, truncate bool) string {
	if !truncate {
		return version
	}
	parts := strings.SplitN(version, ".", 3)
	if len(parts) < 3 {
		return version
	}
	return parts[0] + "." + parts[1]
}

// ParseChecksum extracts the digest for filename from manifest
// content, according to this provider's manifest format. Digests are
// returned lowercased. Filename matching is exact: a manifest line
// for "arm64-root.tar.xz" never matches a query for "root.tar.xz".
func (p *Provider) ParseChecksum(content, filename string) (string, error) {
	switch p.spec.manifestFormat {
	case SingleEntry:
		line, _, _ := strings.Cut(content, "\n")
		fields := strings.Fields(line)
		if len(fields) == 0 {
			return "", fmt.Errorf("%w: empty manifest", ErrChecksumParse)
		}
		return strings.ToLower(fields[0]), nil

	case GNUCoreutils:
		for _, line := range strings.Split(content, "\n") {
			hash, rest, found := strings.Cut(line, " ")
			if !found {
				continue
			}
			// Strip the optional binary-mode '*' indicator.
			name := strings.TrimPrefix(strings.TrimSpace(rest), "*")
			if name == filename {
				return strings.ToLower(hash), nil
			}
		}
		return "", fmt.Errorf("%w: %q", ErrChecksumParse, filename)

	case BSD:
		for _, line := range strings.Split(content, "\n") {
			if !strings.HasPrefix(line, "SHA") {
				continue
			}
			open := strings.Index(line, "(")
			end := strings.Index(line, ")")
			if open < 0 || end < open {
				continue
			}
			if line[open+1:end] != filename {
				continue
			}
			_, hash, found := strings.Cut(line[end:], "=")
			if !found {
				return "", fmt.Errorf("%w: malformed line %q", ErrChecksumParse, line)
			}
			return strings.ToLower(strings.TrimSpace(hash)), nil
		}
		return "", fmt.Errorf("%w: %q", ErrChecksumParse, filename)

	default:
		return "", fmt.Errorf("%w: unknown manifest format", ErrChecksumParse)
	}
}
