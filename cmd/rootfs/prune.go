// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/rootfs/cmd/rootfs/cli"
)

func pruneCommand() *cli.Command {
	var common commonFlags
	var keep int

	return &cli.Command{
		Name:    "prune",
		Summary: "delete old cache entries, keeping the newest per distribution",
		Usage:   "rootfs prune [flags]",
		Examples: []cli.Example{
			{Description: "keep only the newest image of each distribution", Command: "rootfs prune --keep 1"},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("prune", pflag.ContinueOnError)
			common.register(flags)
			flags.IntVar(&keep, "keep", -1, "entries to keep per distribution (default from config)")
			return flags
		},
		Run: func(args []string) error {
			environment, err := newEnv(&common)
			if err != nil {
				return err
			}
			if keep < 0 {
				keep = environment.cfg.Cache.Keep
			}
			freed, err := environment.manager.Prune(keep)
			if err != nil {
				return err
			}
			fmt.Printf("freed %s\n", humanize.IBytes(uint64(freed)))
			return nil
		},
	}
}
