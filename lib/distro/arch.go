// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package distro

import (
	"fmt"
	"runtime"
)

// Architecture is a target CPU architecture for rootfs images.
type Architecture string

const (
	// Aarch64 is 64-bit ARM (Apple Silicon, AWS Graviton).
	Aarch64 Architecture = "aarch64"
	// X86_64 is 64-bit x86 (Intel / AMD).
	X86_64 Architecture = "x86_64"
)

// UnsupportedArchitectureError reports a host architecture outside the
// supported set.
type UnsupportedArchitectureError struct {
	// GoArch is the runtime.GOARCH value of the host.
	GoArch string
}

func (e *UnsupportedArchitectureError) Error() string {
	return fmt.Sprintf("unsupported host architecture: %s", e.GoArch)
}

// CurrentArch detects the host architecture. Hosts outside
// {aarch64, x86_64} are not supported.
func CurrentArch() (Architecture, error) {
	switch runtime.GOARCH {
	case "arm64":
		return Aarch64, nil
	case "amd64":
		return X86_64, nil
	default:
		return "", &UnsupportedArchitectureError{GoArch: runtime.GOARCH}
	}
}

// ParseArch maps a user-supplied architecture name to an
// Architecture, accepting both kernel names (aarch64, x86_64) and
// Debian names (arm64, amd64).
func ParseArch(s string) (Architecture, error) {
	switch s {
	case "aarch64", "arm64":
		return Aarch64, nil
	case "x86_64", "amd64":
		return X86_64, nil
	default:
		return "", &UnsupportedArchitectureError{GoArch: s}
	}
}

// String returns the Linux kernel name of the architecture, used in
// cache paths and official-mirror URLs.
func (a Architecture) String() string { return string(a) }

// DebName returns the Debian-style architecture name (arm64/amd64).
func (a Architecture) DebName() string {
	switch a {
	case Aarch64:
		return "arm64"
	case X86_64:
		return "amd64"
	default:
		return string(a)
	}
}

// ImageName returns the architecture name used in image-server
// product keys. The image server uses Debian-style names.
func (a Architecture) ImageName() string { return a.DebName() }
