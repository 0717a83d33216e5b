// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package distro

import (
	"fmt"
	"strings"
)

// Distro identifies a supported Linux distribution. The zero value is
// not a valid distribution; use ParseSpec or the exported constants.
type Distro string

const (
	// Alma is AlmaLinux, a RHEL-compatible enterprise distribution.
	Alma Distro = "alma"
	// Alpine is Alpine Linux, a lightweight musl-based distribution.
	Alpine Distro = "alpine"
	// Arch is Arch Linux, a rolling-release distribution.
	Arch Distro = "arch"
	// CentOS is CentOS Stream, the upstream RHEL development platform.
	CentOS Distro = "centos"
	// Debian is the universal, stable distribution.
	Debian Distro = "debian"
	// Devuan is a Debian fork without systemd.
	Devuan Distro = "devuan"
	// Fedora is the cutting-edge RPM-based distribution.
	Fedora Distro = "fedora"
	// Gentoo is a source-based distribution.
	Gentoo Distro = "gentoo"
	// Kali is the penetration-testing distribution.
	Kali Distro = "kali"
	// NixOS is the declarative, reproducible distribution.
	NixOS Distro = "nixos"
	// OpenEuler is the enterprise distribution by Huawei.
	OpenEuler Distro = "openeuler"
	// OpenSuse is the community RPM-based distribution.
	OpenSuse Distro = "opensuse"
	// Oracle is Oracle Linux, a RHEL-compatible enterprise distribution.
	Oracle Distro = "oracle"
	// Rocky is Rocky Linux, a RHEL-compatible community distribution.
	Rocky Distro = "rocky"
	// Ubuntu is the popular Debian-based distribution.
	Ubuntu Distro = "ubuntu"
	// Void is Void Linux, an independent rolling-release distribution.
	Void Distro = "void"
)

// All returns every supported distribution in stable order.
func All() []Distro {
	return []Distro{
		Alma, Alpine, Arch, CentOS, Debian, Devuan, Fedora, Gentoo,
		Kali, NixOS, OpenEuler, OpenSuse, Oracle, Rocky, Ubuntu, Void,
	}
}

// String returns the identifier used in cache paths and log output.
func (d Distro) String() string { return string(d) }

// ImageName returns the product name used by the image server
// (images.linuxcontainers.org and compatible mirrors). Most
// distributions use their cache name; four use a longer form.
func (d Distro) ImageName() string {
	switch d {
	case Alma:
		return "almalinux"
	case Arch:
		return "archlinux"
	case Rocky:
		return "rockylinux"
	case Void:
		return "voidlinux"
	default:
		return string(d)
	}
}

// DefaultVersion returns the version used when a spec string carries
// no version suffix.
func (d Distro) DefaultVersion() Version {
	switch d {
	case Alma:
		return "9"
	case Alpine:
		return "3.21"
	case Arch:
		return "current"
	case CentOS:
		return "9-Stream"
	case Debian:
		return "12"
	case Devuan:
		return "daedalus"
	case Fedora:
		return "41"
	case Gentoo:
		return "current"
	case Kali:
		return "current"
	case NixOS:
		return "25.05"
	case OpenEuler:
		return "24.03"
	case OpenSuse:
		return "tumbleweed"
	case Oracle:
		return "9"
	case Rocky:
		return "9"
	case Ubuntu:
		return "24.04"
	case Void:
		return "current"
	default:
		return ""
	}
}

// releaseTables maps user-facing versions to image-server release
// names for the distributions whose releases are published under
// codenames. Versions absent from a table pass through unchanged, so
// a caller may also name the release directly ("noble", "bookworm").
var releaseTables = map[Distro]map[Version]string{
	Ubuntu: {
		"20.04": "focal",
		"22.04": "jammy",
		"24.04": "noble",
		"24.10": "oracular",
		"25.04": "plucky",
	},
	Debian: {
		"10": "buster",
		"11": "bullseye",
		"12": "bookworm",
		"13": "trixie",
	},
	Devuan: {
		"4": "chimaera",
		"5": "daedalus",
		"6": "excalibur",
	},
}

// Release maps a version to the release string used in image-server
// product keys. For most distributions this is the version itself.
func (d Distro) Release(v Version) string {
	if table, ok := releaseTables[d]; ok {
		if release, ok := table[v]; ok {
			return release
		}
	}
	return string(v)
}

// aliases maps every accepted spelling of a distribution name
// (lowercase) to its canonical tag.
var aliases = map[string]Distro{
	"alma":       Alma,
	"almalinux":  Alma,
	"alpine":     Alpine,
	"arch":       Arch,
	"archlinux":  Arch,
	"centos":     CentOS,
	"debian":     Debian,
	"devuan":     Devuan,
	"fedora":     Fedora,
	"gentoo":     Gentoo,
	"kali":       Kali,
	"nixos":      NixOS,
	"openeuler":  OpenEuler,
	"opensuse":   OpenSuse,
	"oracle":     Oracle,
	"rocky":      Rocky,
	"rockylinux": Rocky,
	"ubuntu":     Ubuntu,
	"void":       Void,
	"voidlinux":  Void,
}

// UnknownDistroError reports a distribution name that is not in the
// alias table.
type UnknownDistroError struct {
	// Name is the unrecognized name as given by the caller.
	Name string
}

func (e *UnknownDistroError) Error() string {
	return fmt.Sprintf("unknown distribution: %q", e.Name)
}

// ParseSpec parses a spec string like "alpine:3.20" or "ubuntu" into a
// distribution and version. Names are matched case-insensitively
// against the alias table. When no version suffix is present the
// distribution's default version is returned.
func ParseSpec(spec string) (Distro, Version, error) {
	name, version, hasVersion := strings.Cut(spec, ":")

	d, ok := aliases[strings.ToLower(name)]
	if !ok {
		return "", "", &UnknownDistroError{Name: name}
	}

	if !hasVersion {
		return d, d.DefaultVersion(), nil
	}
	return d, Version(version), nil
}
