// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/redactfs/lib/codec"
	"github.com/bureau-foundation/redactfs/lib/config"
	"github.com/bureau-foundation/redactfs/lib/manifest"
)

// storeFlags are shared by the commands that address one manifest.
type storeFlags struct {
	manifests string
	path      string
}

func (s *storeFlags) add(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&s.manifests, "manifests", "", "manifest store directory (default: paths.manifests from $"+config.EnvironmentVariable+")")
	flagSet.StringVar(&s.path, "path", "", "file path relative to the mount root (required)")
}

// open resolves the store directory and opens it.
func (s *storeFlags) open() (*manifest.Store, error) {
	if s.path == "" {
		return nil, errors.New("--path is required")
	}
	dir := s.manifests
	if dir == "" {
		if os.Getenv(config.EnvironmentVariable) == "" {
			return nil, fmt.Errorf("--manifests is required when %s is not set", config.EnvironmentVariable)
		}
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		dir = cfg.Paths.Manifests
	}
	store, err := manifest.NewStore(dir)
	if err != nil {
		return nil, fmt.Errorf("opening manifest store: %w", err)
	}
	return store, nil
}

func noArgs(name string, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("%s takes no positional arguments, got %q", name, args[0])
	}
	return nil
}

func setCommand(stdout io.Writer) *Command {
	var (
		target     storeFlags
		rangesPath string
		source     string
		size       int64
	)

	return &Command{
		Name:    "set",
		Summary: "Store the redaction manifest of a file",
		Description: `Validate the ranges in a JSONC range file and store them as the
manifest of one file, replacing any previous manifest. Ranges are stored
as authored; they are normalized when the file is opened.`,
		Usage: "redactctl set --path P --ranges FILE [--source S] [--size N] [--manifests DIR]",
		Examples: []Example{
			{
				Description: "Redact the location metadata of a photo",
				Command:     "redactctl set --path DCIM/Camera/IMG_0001.jpg --ranges exif.jsonc --source exif",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("set", pflag.ContinueOnError)
			target.add(flagSet)
			flagSet.StringVar(&rangesPath, "ranges", "", "JSONC range file, - for stdin (required)")
			flagSet.StringVar(&source, "source", "", "producer that computed the ranges")
			flagSet.Int64Var(&size, "size", 0, "file size the ranges were computed against")
			return flagSet
		},
		Run: func(args []string) error {
			if err := noArgs("set", args); err != nil {
				return err
			}
			if rangesPath == "" {
				return errors.New("--ranges is required")
			}
			store, err := target.open()
			if err != nil {
				return err
			}
			offsets, err := readRanges(rangesPath)
			if err != nil {
				return err
			}

			entry := manifest.Manifest{
				Path:    target.path,
				Offsets: offsets,
				Source:  source,
				Size:    size,
			}
			if err := store.Put(entry); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "stored %d ranges for %s\n", entry.Count(), manifest.CleanPath(target.path))
			return nil
		},
	}
}

func showCommand(stdout io.Writer) *Command {
	var (
		target   storeFlags
		diagnose bool
	)

	return &Command{
		Name:    "show",
		Summary: "Print the normalized ranges of a file",
		Usage:   "redactctl show --path P [--diagnose] [--manifests DIR]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("show", pflag.ContinueOnError)
			target.add(flagSet)
			flagSet.BoolVar(&diagnose, "diagnose", false, "print the stored CBOR in diagnostic notation")
			return flagSet
		},
		Run: func(args []string) error {
			if err := noArgs("show", args); err != nil {
				return err
			}
			store, err := target.open()
			if err != nil {
				return err
			}

			if diagnose {
				data, err := store.Raw(target.path)
				if err != nil {
					return err
				}
				notation, err := codec.Diagnose(data)
				if err != nil {
					return fmt.Errorf("diagnosing manifest: %w", err)
				}
				fmt.Fprintln(stdout, notation)
				return nil
			}

			entry, err := store.Get(target.path)
			if errors.Is(err, os.ErrNotExist) {
				fmt.Fprintf(stdout, "%s: no manifest\n", manifest.CleanPath(target.path))
				return nil
			}
			if err != nil {
				return err
			}
			engine, err := entry.Engine()
			if err != nil {
				return fmt.Errorf("manifest for %s: %w", entry.Path, err)
			}

			fmt.Fprintf(stdout, "path: %s\n", entry.Path)
			if entry.Source != "" {
				fmt.Fprintf(stdout, "source: %s\n", entry.Source)
			}
			if entry.Size != 0 {
				fmt.Fprintf(stdout, "size: %d\n", entry.Size)
			}
			fmt.Fprintf(stdout, "ranges: %d\n", engine.Len())
			for _, r := range engine.Ranges() {
				fmt.Fprintf(stdout, "  [%d, %d) %d bytes\n", r.Start, r.End, r.Length())
			}
			return nil
		},
	}
}

func clearCommand(stdout io.Writer) *Command {
	var target storeFlags

	return &Command{
		Name:    "clear",
		Summary: "Delete the manifest of a file",
		Usage:   "redactctl clear --path P [--manifests DIR]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("clear", pflag.ContinueOnError)
			target.add(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			if err := noArgs("clear", args); err != nil {
				return err
			}
			store, err := target.open()
			if err != nil {
				return err
			}
			if err := store.Delete(target.path); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "cleared %s\n", manifest.CleanPath(target.path))
			return nil
		},
	}
}
