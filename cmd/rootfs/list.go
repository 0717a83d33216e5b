// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/rootfs/cmd/rootfs/cli"
)

func listCommand() *cli.Command {
	var common commonFlags

	return &cli.Command{
		Name:    "list",
		Summary: "list cached rootfs images",
		Usage:   "rootfs list [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("list", pflag.ContinueOnError)
			common.register(flags)
			return flags
		},
		Run: func(args []string) error {
			environment, err := newEnv(&common)
			if err != nil {
				return err
			}
			entries, err := environment.manager.ListCached()
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("cache is empty")
				return nil
			}

			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintln(tw, "DISTRO\tVERSION\tARCH\tSIZE\tFETCHED")
			var total uint64
			for _, entry := range entries {
				m := entry.Metadata
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					m.Distro, m.Version, m.Architecture,
					humanize.IBytes(uint64(m.Size)), humanize.Time(m.FetchedAt))
				total += uint64(m.Size)
			}
			tw.Flush()
			fmt.Printf("\n%d images, %s total\n", len(entries), humanize.IBytes(total))
			return nil
		},
	}
}
