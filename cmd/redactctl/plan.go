// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"github.com/tidwall/jsonc"

	"github.com/bureau-foundation/redactfs/lib/redaction"
)

// rangeFile is the operator-authored range document. Exactly one of
// Ranges or Offsets may be set; a document with neither has no ranges.
type rangeFile struct {
	// Ranges lists [start, end] pairs.
	Ranges [][]int64 `json:"ranges"`

	// Offsets is the flat start/end form stored in manifests.
	Offsets []int64 `json:"offsets"`
}

// parseRanges strips JSONC comments and trailing commas from data and
// returns the flat offsets it describes.
func parseRanges(data []byte) ([]int64, error) {
	var file rangeFile
	if err := json.Unmarshal(jsonc.ToJSON(data), &file); err != nil {
		return nil, fmt.Errorf("parsing ranges: %w", err)
	}
	if file.Ranges != nil && file.Offsets != nil {
		return nil, errors.New("parsing ranges: set either \"ranges\" or \"offsets\", not both")
	}
	if file.Offsets != nil {
		if len(file.Offsets)%2 != 0 {
			return nil, fmt.Errorf("parsing ranges: \"offsets\" has odd length %d", len(file.Offsets))
		}
		return file.Offsets, nil
	}

	offsets := make([]int64, 0, 2*len(file.Ranges))
	for index, pair := range file.Ranges {
		if len(pair) != 2 {
			return nil, fmt.Errorf("parsing ranges: range %d has %d elements, want [start, end]", index, len(pair))
		}
		offsets = append(offsets, pair[0], pair[1])
	}
	return offsets, nil
}

// readRanges reads a JSONC range file. "-" reads stdin.
func readRanges(path string) ([]int64, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	offsets, err := parseRanges(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return offsets, nil
}

func loadEngine(path string) (*redaction.Engine, error) {
	offsets, err := readRanges(path)
	if err != nil {
		return nil, err
	}
	return redaction.New(len(offsets)/2, offsets)
}

// planSpan is the JSON form of a redaction.Span.
type planSpan struct {
	Start    int64 `json:"start"`
	Length   int64 `json:"length"`
	Redacted bool  `json:"redacted"`
}

func planCommand(stdout io.Writer) *Command {
	var (
		rangesPath string
		offset     int64
		size       int64
		asJSON     bool
		flagSet    *pflag.FlagSet
	)

	return &Command{
		Name:    "plan",
		Summary: "Print the read plan for a range file",
		Description: `Normalize the ranges in a JSONC range file and print how a read of
the given window is split into data and redaction spans.

The range file holds either {"ranges": [[start, end], ...]} or the flat
manifest form {"offsets": [start, end, ...]}. Comments and trailing
commas are allowed. Without --size the window runs to the end of the
last range.`,
		Usage: "redactctl plan --ranges FILE [--offset N] [--size N] [--json]",
		Examples: []Example{
			{
				Description: "Plan a 10 byte read at offset 5",
				Command:     "redactctl plan --ranges ranges.jsonc --offset 5 --size 10",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet = pflag.NewFlagSet("plan", pflag.ContinueOnError)
			flagSet.StringVar(&rangesPath, "ranges", "", "JSONC range file, - for stdin (required)")
			flagSet.Int64Var(&offset, "offset", 0, "read offset")
			flagSet.Int64Var(&size, "size", 0, "read size (default: through the last range)")
			flagSet.BoolVar(&asJSON, "json", false, "print the plan as JSON")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("plan takes no positional arguments, got %q", args[0])
			}
			if rangesPath == "" {
				return errors.New("--ranges is required")
			}
			engine, err := loadEngine(rangesPath)
			if err != nil {
				return err
			}

			readSize := size
			if flagSet.Changed("size") {
				if size < 0 {
					return fmt.Errorf("--size must not be negative, got %d", size)
				}
			} else if ranges := engine.Ranges(); len(ranges) > 0 {
				readSize = max(ranges[len(ranges)-1].End-offset, 0)
			}

			spans, err := engine.PlanRead(offset, readSize)
			if err != nil {
				return err
			}
			return writePlan(stdout, spans, asJSON)
		},
	}
}

func writePlan(w io.Writer, spans []redaction.Span, asJSON bool) error {
	if !asJSON {
		for _, span := range spans {
			fmt.Fprintln(w, span)
		}
		return nil
	}

	result := make([]planSpan, 0, len(spans))
	for _, span := range spans {
		result = append(result, planSpan{Start: span.Start, Length: span.Length, Redacted: span.Redacted})
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}
