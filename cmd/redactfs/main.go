// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// redactfs mounts a read-only view of a lower directory in which the
// byte ranges recorded in each file's redaction manifest read back as
// zeros. Manifests are managed with redactctl.
//
// Configuration comes from the YAML file named by --config or the
// REDACTFS_CONFIG environment variable. Without either, built-in
// defaults are used and --lower-dir and --mountpoint must be given.
// Flags override the file.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/redactfs/lib/config"
	"github.com/bureau-foundation/redactfs/lib/fuse"
	"github.com/bureau-foundation/redactfs/lib/manifest"
	"github.com/bureau-foundation/redactfs/lib/process"
	"github.com/bureau-foundation/redactfs/lib/version"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		process.Fatal(err)
	}
}

// flags are the command-line overrides of the config file.
type flags struct {
	configPath  string
	lowerDir    string
	mountpoint  string
	volumePath  string
	allowOther  bool
	debug       bool
	logLevel    string
	showVersion bool
	checkOnly   bool
}

func parseFlags(args []string, output io.Writer) (*flags, *pflag.FlagSet, error) {
	var parsed flags
	flagSet := pflag.NewFlagSet("redactfs", pflag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.StringVar(&parsed.configPath, "config", "", "path to redactfs.yaml (default: $"+config.EnvironmentVariable+")")
	flagSet.StringVar(&parsed.lowerDir, "lower-dir", "", "real directory to expose through the mount")
	flagSet.StringVar(&parsed.mountpoint, "mountpoint", "", "directory to mount the redacting view on")
	flagSet.StringVar(&parsed.volumePath, "volume-path", "", "storage path the mount root stands for (e.g. /storage/emulated/0)")
	flagSet.BoolVar(&parsed.allowOther, "allow-other", false, "allow other users to access the mount")
	flagSet.BoolVar(&parsed.debug, "debug", false, "trace FUSE requests")
	flagSet.StringVar(&parsed.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flagSet.BoolVar(&parsed.checkOnly, "check", false, "validate the configuration and exit without mounting")
	flagSet.BoolVar(&parsed.showVersion, "version", false, "print version information and exit")

	if err := flagSet.Parse(args); err != nil {
		return nil, flagSet, err
	}
	if flagSet.NArg() > 0 {
		return nil, flagSet, fmt.Errorf("unexpected argument: %s", flagSet.Arg(0))
	}
	return &parsed, flagSet, nil
}

// loadConfig resolves the configuration from the file and applies the
// flag overrides. Only flags that were set on the command line win.
func loadConfig(parsed *flags, flagSet *pflag.FlagSet) (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case parsed.configPath != "":
		cfg, err = config.LoadFile(parsed.configPath)
	case os.Getenv(config.EnvironmentVariable) != "":
		cfg, err = config.Load()
	default:
		cfg = config.Default()
		cfg.Resolve()
	}
	if err != nil {
		return nil, err
	}

	if flagSet.Changed("lower-dir") {
		cfg.Paths.LowerDir = parsed.lowerDir
	}
	if flagSet.Changed("mountpoint") {
		cfg.Paths.Mountpoint = parsed.mountpoint
	}
	if flagSet.Changed("volume-path") {
		cfg.Mount.VolumePath = parsed.volumePath
	}
	if flagSet.Changed("allow-other") {
		cfg.Mount.AllowOther = parsed.allowOther
	}
	if flagSet.Changed("debug") {
		cfg.Mount.Debug = parsed.debug
	}
	if flagSet.Changed("log-level") {
		cfg.Log.Level = parsed.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func run(args []string, stdout io.Writer) error {
	parsed, flagSet, err := parseFlags(args, os.Stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if parsed.showVersion {
		version.Fprint(stdout, "redactfs")
		return nil
	}

	cfg, err := loadConfig(parsed, flagSet)
	if err != nil {
		return err
	}
	if parsed.checkOnly {
		fmt.Fprintf(stdout, "configuration ok: %s -> %s\n", cfg.Paths.LowerDir, cfg.Paths.Mountpoint)
		return nil
	}

	logger := process.NewLogger(cfg.LogLevel())

	if err := cfg.EnsurePaths(); err != nil {
		return err
	}

	store, err := manifest.NewStore(cfg.Paths.Manifests)
	if err != nil {
		return fmt.Errorf("opening manifest store: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server, err := fuse.Mount(fuse.Options{
		LowerDir:   cfg.Paths.LowerDir,
		Mountpoint: cfg.Paths.Mountpoint,
		VolumePath: cfg.Mount.VolumePath,
		Manifests:  store,
		AllowOther: cfg.Mount.AllowOther,
		Debug:      cfg.Mount.Debug,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	serve(ctx, server, logger, cfg.Paths.Mountpoint)
	return nil
}

// mountServer is the part of *fuse.Server that serve drives.
type mountServer interface {
	Wait()
	Unmount() error
}

// serve blocks until the mount goes away. Cancelling ctx unmounts it;
// an unmount from outside (fusermount -u) ends serve without a second
// Unmount.
func serve(ctx context.Context, server mountServer, logger *slog.Logger, mountpoint string) {
	waited := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		select {
		case <-ctx.Done():
			logger.Info("shutting down", "mountpoint", mountpoint)
			if err := server.Unmount(); err != nil {
				logger.Error("unmount failed", "mountpoint", mountpoint, "error", err)
			}
		case <-waited:
		}
	}()

	server.Wait()
	close(waited)
	<-finished

	if ctx.Err() == nil {
		logger.Warn("mount removed externally", "mountpoint", mountpoint)
		return
	}
	logger.Info("unmounted", "mountpoint", mountpoint)
}
