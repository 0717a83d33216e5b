// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"strings"
	"testing"

	"github.com/bureau-foundation/rootfs/cmd/rootfs/cli"
	"github.com/bureau-foundation/rootfs/lib/distro"
)

// TestCommandTreeShape walks the full command tree and validates that
// every leaf has a Run function and a summary, and that names are
// unique among siblings. A command that dispatches nowhere is a
// wiring mistake that only shows up at runtime otherwise.
func TestCommandTreeShape(t *testing.T) {
	root := rootCommand()
	walkCommands(root, nil, func(command *cli.Command, path []string) {
		name := strings.Join(path, " ")
		if command.Run == nil && len(command.Subcommands) == 0 {
			t.Errorf("%s: neither Run nor Subcommands", name)
		}
		if command != root && command.Summary == "" {
			t.Errorf("%s: missing Summary", name)
		}
		seen := map[string]bool{}
		for _, sub := range command.Subcommands {
			if seen[sub.Name] {
				t.Errorf("%s: duplicate subcommand %q", name, sub.Name)
			}
			seen[sub.Name] = true
		}
	})
}

// walkCommands recursively visits every command in the tree,
// calling visit for each node with the accumulated command path.
func walkCommands(command *cli.Command, path []string, visit func(*cli.Command, []string)) {
	current := make([]string, len(path)+1)
	copy(current, path)
	current[len(path)] = command.Name
	visit(command, current)
	for _, sub := range command.Subcommands {
		walkCommands(sub, current, visit)
	}
}

func TestParseTarget(t *testing.T) {
	d, v, arch, err := parseTarget([]string{"ubuntu:24.04"}, "aarch64")
	if err != nil {
		t.Fatalf("parseTarget failed: %v", err)
	}
	if d != distro.Ubuntu || v != "24.04" || arch != distro.Aarch64 {
		t.Errorf("got %s %s %s", d, v, arch)
	}

	if _, _, _, err := parseTarget(nil, ""); err == nil {
		t.Error("missing argument should fail")
	}
	if _, _, _, err := parseTarget([]string{"a", "b"}, ""); err == nil {
		t.Error("extra arguments should fail")
	}
	if _, _, _, err := parseTarget([]string{"slackware"}, ""); err == nil {
		t.Error("unknown distribution should fail")
	}
	if _, _, _, err := parseTarget([]string{"alpine"}, "mips"); err == nil {
		t.Error("unknown architecture should fail")
	}
}
