// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/rootfs/cmd/rootfs/cli"
	"github.com/bureau-foundation/rootfs/lib/mirror"
	"github.com/bureau-foundation/rootfs/lib/rootfscache"
)

func fetchCommand() *cli.Command {
	var common commonFlags
	var archFlag, mirrorFlag string
	var official bool

	return &cli.Command{
		Name:    "fetch",
		Summary: "download a rootfs image into the cache",
		Description: `Download and verify a distribution rootfs image, storing it in the
local cache. A second fetch of the same image is a cache hit and
touches the network only if the cached archive fails verification.`,
		Usage: "rootfs fetch <distro[:version]> [flags]",
		Examples: []cli.Example{
			{Description: "fetch the default Alpine release for this machine", Command: "rootfs fetch alpine"},
			{Description: "fetch a specific Ubuntu release for arm64", Command: "rootfs fetch ubuntu:24.04 --arch aarch64"},
			{Description: "fetch from the distribution's official mirror", Command: "rootfs fetch debian:12 --official"},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("fetch", pflag.ContinueOnError)
			common.register(flags)
			flags.StringVar(&archFlag, "arch", "", "target architecture (default: host)")
			flags.StringVar(&mirrorFlag, "mirror", "", "image mirror: preset name, user mirror, or URL")
			flags.BoolVar(&official, "official", false, "fetch from the distribution's official mirror")
			return flags
		},
		Run: func(args []string) error {
			environment, err := newEnv(&common)
			if err != nil {
				return err
			}
			d, v, arch, err := parseTarget(args, archFlag)
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

			fmt.Printf("%s %s (%s): %s (%s)\n",
				d, v, arch, cached.ArchivePath, humanize.IBytes(uint64(cached.Metadata.Size)))
			return nil
		},
	}
}
