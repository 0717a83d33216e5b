// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Command rootfs resolves, downloads, verifies, caches, and extracts
// Linux distribution rootfs images.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCommand().Execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
