// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/rootfs/cmd/rootfs/cli"
	"github.com/bureau-foundation/rootfs/lib/config"
	"github.com/bureau-foundation/rootfs/lib/distro"
	"github.com/bureau-foundation/rootfs/lib/download"
	"github.com/bureau-foundation/rootfs/lib/mirror"
	"github.com/bureau-foundation/rootfs/lib/rootfscache"
)

func rootCommand() *cli.Command {
	return &cli.Command{
		Name:    "rootfs",
		Summary: "resolve, download, verify, cache, and extract Linux rootfs images",
		Description: `rootfs manages a local cache of verified Linux distribution root
filesystem images, fetched from Simplestreams image servers or from
official distribution mirrors.`,
		Subcommands: []*cli.Command{
			fetchCommand(),
			extractCommand(),
			verifyCommand(),
			listCommand(),
			pruneCommand(),
			resolveCommand(),
			mirrorsCommand(),
			distrosCommand(),
		},
	}
}

// commonFlags are the flags shared by every subcommand that touches
// configuration or the cache.
type commonFlags struct {
	config  string
	verbose bool
}

func (f *commonFlags) register(flags *pflag.FlagSet) {
	flags.StringVar(&f.config, "config", "", "config file path (default $ROOTFS_CONFIG)")
	flags.BoolVarP(&f.verbose, "verbose", "v", false, "enable debug logging")
}

// env bundles the loaded configuration with the handles every command
// needs.
type env struct {
	cfg         *config.Config
	logger      *slog.Logger
	manager     *rootfscache.Manager
	userMirrors mirror.UserMirrors
}

func newEnv(f *commonFlags) (*env, error) {
	cfg, err := loadConfig(f.config)
	if err != nil {
		return nil, err
	}

	logger := cli.NewCommandLogger(f.verbose)

	root := cfg.Cache.Root
	if root == "" {
		root, err = rootfscache.DefaultRoot()
		if err != nil {
			return nil, err
		}
	}
	manager, err := rootfscache.NewManager(rootfscache.Config{
		Root:     root,
		Pipeline: &download.Pipeline{Logger: logger},
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	var userMirrors mirror.UserMirrors
	if cfg.UserMirrors != "" {
		userMirrors, err = mirror.LoadUserMirrors(cfg.UserMirrors)
		if err != nil {
			return nil, err
		}
	}

	return &env{cfg: cfg, logger: logger, manager: manager, userMirrors: userMirrors}, nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

// mirror resolves the --mirror flag value, falling back to the
// configured default. User mirrors shadow presets.
func (e *env) mirror(flagValue string) (mirror.Mirror, error) {
	name := flagValue
	if name == "" {
		name = e.cfg.Mirror
	}
	return e.userMirrors.Resolve(name)
}

// parseTarget parses the single <distro[:version]> positional argument
// and the --arch flag into a concrete image triple.
func parseTarget(args []string, archFlag string) (distro.Distro, distro.Version, distro.Architecture, error) {
	if len(args) != 1 {
		return "", "", "", fmt.Errorf("expected exactly one <distro[:version]> argument, got %d", len(args))
	}
	d, v, err := distro.ParseSpec(args[0])
	if err != nil {
		return "", "", "", err
	}
	var arch distro.Architecture
	if archFlag == "" {
		arch, err = distro.CurrentArch()
	} else {
		arch, err = distro.ParseArch(archFlag)
	}
	if err != nil {
		return "", "", "", err
	}
	return d, v, arch, nil
}
