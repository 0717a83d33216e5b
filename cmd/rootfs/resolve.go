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
	"github.com/bureau-foundation/rootfs/lib/simplestreams"
)

func resolveCommand() *cli.Command {
	var common commonFlags
	var archFlag, mirrorFlag string

	return &cli.Command{
		Name:    "resolve",
		Summary: "resolve an image to its download URL and digest without fetching",
		Description: `Query the mirror's Simplestreams index and print the download URL,
SHA-256 digest, and size the fetch command would use. No archive
bytes are transferred.`,
		Usage: "rootfs resolve <distro[:version]> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("resolve", pflag.ContinueOnError)
			common.register(flags)
			flags.StringVar(&archFlag, "arch", "", "target architecture (default: host)")
			flags.StringVar(&mirrorFlag, "mirror", "", "image mirror: preset name, user mirror, or URL")
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
			m, err := environment.mirror(mirrorFlag)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			client := simplestreams.NewClient(m, nil, environment.logger)
			image, err := client.Resolve(ctx, d, v, arch)
			if err != nil {
				return err
			}

			fmt.Printf("url:    %s\n", image.URL)
			fmt.Printf("sha256: %s\n", image.SHA256)
			fmt.Printf("size:   %s (%d bytes)\n", humanize.IBytes(uint64(image.Size)), image.Size)
			return nil
		},
	}
}
