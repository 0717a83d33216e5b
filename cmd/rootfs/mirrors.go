// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/rootfs/cmd/rootfs/cli"
	"github.com/bureau-foundation/rootfs/lib/mirror"
)

func mirrorsCommand() *cli.Command {
	var common commonFlags

	return &cli.Command{
		Name:    "mirrors",
		Summary: "list available image mirrors",
		Usage:   "rootfs mirrors [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("mirrors", pflag.ContinueOnError)
			common.register(flags)
			return flags
		},
		Run: func(args []string) error {
			environment, err := newEnv(&common)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintln(tw, "NAME\tURL\tSOURCE")
			for _, preset := range mirror.Presets() {
				source := "preset"
				if preset.Name() == environment.cfg.Mirror {
					source = "preset (default)"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", preset.Name(), preset.BaseURL(), source)
			}
			for _, name := range environment.userMirrors.Names() {
				m := environment.userMirrors[name]
				source := "user"
				if name == environment.cfg.Mirror {
					source = "user (default)"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", name, m.BaseURL(), source)
			}
			return tw.Flush()
		},
	}
}
