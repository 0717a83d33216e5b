// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/bureau-foundation/rootfs/cmd/rootfs/cli"
	"github.com/bureau-foundation/rootfs/lib/distro"
	"github.com/bureau-foundation/rootfs/lib/provider"
)

func distrosCommand() *cli.Command {
	return &cli.Command{
		Name:    "distros",
		Summary: "list supported distributions and their default versions",
		Usage:   "rootfs distros",
		Run: func(args []string) error {
			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintln(tw, "DISTRO\tDEFAULT VERSION\tOFFICIAL MIRROR")
			for _, d := range distro.All() {
				officialMirror := "-"
				if _, ok := provider.Official(d); ok {
					officialMirror = "yes"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", d, d.DefaultVersion(), officialMirror)
			}
			return tw.Flush()
		},
	}
}
