// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/redactfs/lib/direntry"
	"github.com/bureau-foundation/redactfs/lib/mountpath"
)

func lsCommand(stdout io.Writer) *Command {
	var dirsOnly bool

	return &Command{
		Name:    "ls",
		Summary: "List a lower directory the way the mount enumerates it",
		Usage:   "redactctl ls [--dirs-only] DIR",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("ls", pflag.ContinueOnError)
			flagSet.BoolVar(&dirsOnly, "dirs-only", false, "list only subdirectories")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("ls takes exactly one directory, got %d arguments", len(args))
			}
			var filter direntry.Filter
			if dirsOnly {
				filter = direntry.IsDirectory
			}
			entries, err := direntry.ListPath(args[0], filter)
			if err != nil {
				return err
			}
			for _, entry := range entries {
				fmt.Fprintf(stdout, "%-7s %s\n", entry.Type, entry.Name)
			}
			return nil
		},
	}
}

func volumeCommand(stdout io.Writer) *Command {
	return &Command{
		Name:    "volume",
		Summary: "Classify a storage path",
		Description: `Print the volume a storage path belongs to, its user id when it is
on the emulated volume, and whether it is one of the separately mounted
app-private directories (Android, Android/data, Android/obb) or inside
one.`,
		Usage: "redactctl volume PATH",
		Examples: []Example{
			{Command: "redactctl volume /storage/emulated/0/Android/data/com.example"},
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("volume takes exactly one path, got %d arguments", len(args))
			}
			path := args[0]
			fmt.Fprintf(stdout, "volume: %s\n", mountpath.VolumeNameFromPath(path))
			if user, ok := mountpath.UserIDFromPath(path); ok {
				fmt.Fprintf(stdout, "user: %d\n", user)
			}
			fmt.Fprintf(stdout, "mount: %t\n", mountpath.ContainsMount(path))
			fmt.Fprintf(stdout, "mounted subtree: %t\n", mountpath.IsMountedSubtree(path))
			return nil
		},
	}
}
