// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/rootfs/cmd/rootfs/cli"
	"github.com/bureau-foundation/rootfs/lib/mirror"
	"github.com/bureau-foundation/rootfs/lib/rootfscache"
)

func extractCommand() *cli.Command {
	var common commonFlags
	var archFlag, mirrorFlag string
	var official bool

	return &cli.Command{
		Name:    "extract",
		Summary: "extract a cached rootfs image into a directory",
		Description: `Extract a rootfs image into a target directory, fetching it into the
cache first if it is not already present and verified.`,
		Usage: "rootfs extract <distro[:version]> <target-dir> [flags]",
		Examples: []cli.Example{
			{Description: "unpack Alpine into ./root", Command: "rootfs extract alpine:3.21 ./root"},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("extract", pflag.ContinueOnError)
			common.register(flags)
			flags.StringVar(&archFlag, "arch", "", "target architecture (default: host)")
			flags.StringVar(&mirrorFlag, "mirror", "", "image mirror: preset name, user mirror, or URL")
			flags.BoolVar(&official, "official", false, "fetch from the distribution's official mirror")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("expected <distro[:version]> <target-dir>, got %d arguments", len(args))
			}
			target := args[1]

			environment, err := newEnv(&common)
			if err != nil {
				return err
			}
			d, v, arch, err := parseTarget(args[:1], archFlag)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			meter := newProgressMeter()
			defer meter.finish()

			var cached *rootfscache.CachedRootfs
			if official {
				cached, err = environment.manager.EnsureOfficial(ctx, d, v, arch, meter.callback())
			} else {
				var m mirror.Mirror
				m, err = environment.mirror(mirrorFlag)
				if err != nil {
					return err
				}
				cached, err = environment.manager.Ensure(ctx, d, v, arch, m, meter.callback())
			}
			if err != nil {
				return err
			}
			meter.finish()

			if err := cached.ExtractTo(target); err != nil {
				return err
			}
			fmt.Printf("extracted %s %s (%s) to %s\n", d, v, arch, target)
			return nil
		},
	}
}
