// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli implements the command tree for the rootfs tool: a
// declarative Command type with pflag flag sets, nested subcommand
// dispatch, structured help output, and typo suggestions for unknown
// commands and flags.
package cli
