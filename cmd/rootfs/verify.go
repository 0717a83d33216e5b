// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/rootfs/cmd/rootfs/cli"
)

func verifyCommand() *cli.Command {
	var common commonFlags

	return &cli.Command{
		Name:    "verify",
		Summary: "re-hash every cached archive against its recorded digest",
		Description: `Re-hash all cached archives and report any whose contents no longer
match the digest recorded at download time. Exits non-zero if any
entry fails.`,
		Usage: "rootfs verify [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("verify", pflag.ContinueOnError)
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

			var corrupt int
			for _, entry := range entries {
				ok, err := entry.VerifyIntegrity()
				status := "ok"
				switch {
				case err != nil:
					status = fmt.Sprintf("error: %v", err)
					corrupt++
				case !ok:
					status = "CORRUPT"
					corrupt++
				}
				fmt.Printf("%-12s %-12s %-8s %s\n",
					entry.Metadata.Distro, entry.Metadata.Version, entry.Metadata.Architecture, status)
			}
			if corrupt > 0 {
				return fmt.Errorf("%d corrupt cache entries (refetch them to repair)", corrupt)
			}
			return nil
		},
	}
}
