// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// redactctl manages redaction manifests and inspects what the
// redactfs mount would serve: read plans for a set of ranges, raw
// lower directory listings and mount path classification.
package main

import (
	"io"
	"os"

	"github.com/bureau-foundation/redactfs/lib/process"
	"github.com/bureau-foundation/redactfs/lib/version"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		process.Fatal(err)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	return root(stdout, stderr).Execute(args)
}

func root(stdout, stderr io.Writer) *Command {
	return &Command{
		Name:    "redactctl",
		Summary: "Manage redactfs manifests and inspect read plans",
		help:    stderr,
		Subcommands: []*Command{
			planCommand(stdout),
			setCommand(stdout),
			showCommand(stdout),
			clearCommand(stdout),
			lsCommand(stdout),
			volumeCommand(stdout),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(args []string) error {
					version.Fprint(stdout, "redactctl")
					return nil
				},
			},
		},
	}
}
