// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/redactfs/lib/config"
)

// execute runs redactctl with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(args, &stdout, &stderr)
	return stdout.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestParseRanges(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []int64
		wantErr bool
	}{
		{"pairs", `{"ranges": [[10, 20], [30, 40]]}`, []int64{10, 20, 30, 40}, false},
		{"offsets", `{"offsets": [1, 2]}`, []int64{1, 2}, false},
		{"comments and trailing comma", `{
			// EXIF GPS block
			"ranges": [[10, 20],],
		}`, []int64{10, 20}, false},
		{"empty document", `{}`, []int64{}, false},
		{"both forms", `{"ranges": [[1, 2]], "offsets": [1, 2]}`, nil, true},
		{"odd offsets", `{"offsets": [1, 2, 3]}`, nil, true},
		{"short pair", `{"ranges": [[1]]}`, nil, true},
		{"not json", `ranges`, nil, true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := parseRanges([]byte(test.input))
			if test.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseRanges: %v", err)
			}
			if len(got) != len(test.want) {
				t.Fatalf("got %v, want %v", got, test.want)
			}
			for i := range got {
				if got[i] != test.want[i] {
					t.Fatalf("got %v, want %v", got, test.want)
				}
			}
		})
	}
}

func TestPlanScenarios(t *testing.T) {
	tests := []struct {
		name   string
		ranges string
		args   []string
		want   string
	}{
		{
			name:   "no ranges",
			ranges: `{"ranges": []}`,
			args:   []string{"--size", "100"},
			want:   "(0,100,data)\n",
		},
		{
			name:   "one range",
			ranges: `{"ranges": [[10, 20]]}`,
			args:   []string{"--size", "100"},
			want:   "(0,10,data)\n(10,10,redaction)\n(20,80,data)\n",
		},
		{
			name:   "inside one range",
			ranges: `{"ranges": [[10, 20]]}`,
			args:   []string{"--offset", "12", "--size", "3"},
			want:   "(12,3,redaction)\n",
		},
		{
			name:   "unsorted overlapping",
			ranges: `{"ranges": [[20, 30], [10, 25]]}`,
			args:   []string{"--size", "40"},
			want:   "(0,10,data)\n(10,20,redaction)\n(30,10,data)\n",
		},
		{
			name:   "touching ranges coalesce",
			ranges: `{"ranges": [[10, 20], [20, 30]]}`,
			args:   []string{"--size", "40"},
			want:   "(0,10,data)\n(10,20,redaction)\n(30,10,data)\n",
		},
		{
			name:   "default window ends at last range",
			ranges: `{"offsets": [4, 8]}`,
			want:   "(0,4,data)\n(4,4,redaction)\n",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			path := writeFile(t, "ranges.jsonc", test.ranges)
			args := append([]string{"plan", "--ranges", path}, test.args...)
			got, err := execute(t, args...)
			if err != nil {
				t.Fatalf("plan: %v", err)
			}
			if got != test.want {
				t.Errorf("plan output:\n%s\nwant:\n%s", got, test.want)
			}
		})
	}
}

func TestPlanJSON(t *testing.T) {
	path := writeFile(t, "ranges.jsonc", `{"ranges": [[2, 4]]}`)
	out, err := execute(t, "plan", "--ranges", path, "--size", "6", "--json")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}

	var spans []planSpan
	if err := json.Unmarshal([]byte(out), &spans); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	want := []planSpan{
		{Start: 0, Length: 2},
		{Start: 2, Length: 2, Redacted: true},
		{Start: 4, Length: 2},
	}
	if len(spans) != len(want) {
		t.Fatalf("spans = %+v, want %+v", spans, want)
	}
	for i := range want {
		if spans[i] != want[i] {
			t.Errorf("span %d = %+v, want %+v", i, spans[i], want[i])
		}
	}
}

func TestPlanRejectsInvalidRanges(t *testing.T) {
	path := writeFile(t, "ranges.jsonc", `{"ranges": [[20, 10]]}`)
	if _, err := execute(t, "plan", "--ranges", path); err == nil {
		t.Fatal("expected error for inverted range")
	}
}

func TestPlanRejectsNegativeSize(t *testing.T) {
	path := writeFile(t, "ranges.jsonc", `{"ranges": [[10, 20]]}`)
	_, err := execute(t, "plan", "--ranges", path, "--size", "-5")
	if err == nil || !strings.Contains(err.Error(), "--size") {
		t.Fatalf("expected --size error, got %v", err)
	}
}

func TestPlanExplicitZeroSize(t *testing.T) {
	path := writeFile(t, "ranges.jsonc", `{"ranges": [[10, 20]]}`)
	out, err := execute(t, "plan", "--ranges", path, "--size", "0")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if out != "" {
		t.Errorf("plan output = %q, want empty plan", out)
	}
}

func TestPlanRequiresRanges(t *testing.T) {
	if _, err := execute(t, "plan"); err == nil || !strings.Contains(err.Error(), "--ranges") {
		t.Fatalf("expected --ranges error, got %v", err)
	}
}

func TestManifestLifecycle(t *testing.T) {
	store := filepath.Join(t.TempDir(), "manifests")
	ranges := writeFile(t, "ranges.jsonc", `{"ranges": [[30, 40], [10, 20], [15, 25]]}`)

	out, err := execute(t, "set", "--manifests", store, "--path", "DCIM/a.jpg", "--ranges", ranges, "--source", "exif")
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if out != "stored 3 ranges for /DCIM/a.jpg\n" {
		t.Errorf("set output = %q", out)
	}

	out, err = execute(t, "show", "--manifests", store, "--path", "/DCIM/a.jpg")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	want := "path: /DCIM/a.jpg\nsource: exif\nranges: 2\n  [10, 25) 15 bytes\n  [30, 40) 10 bytes\n"
	if out != want {
		t.Errorf("show output:\n%s\nwant:\n%s", out, want)
	}

	out, err = execute(t, "show", "--manifests", store, "--path", "/DCIM/a.jpg", "--diagnose")
	if err != nil {
		t.Fatalf("show --diagnose: %v", err)
	}
	if !strings.Contains(out, `"path": "/DCIM/a.jpg"`) {
		t.Errorf("diagnostic output = %q", out)
	}

	if _, err := execute(t, "clear", "--manifests", store, "--path", "DCIM/a.jpg"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	out, err = execute(t, "show", "--manifests", store, "--path", "DCIM/a.jpg")
	if err != nil {
		t.Fatalf("show after clear: %v", err)
	}
	if out != "/DCIM/a.jpg: no manifest\n" {
		t.Errorf("show after clear = %q", out)
	}
}

func TestSetRejectsMalformedRanges(t *testing.T) {
	store := filepath.Join(t.TempDir(), "manifests")
	ranges := writeFile(t, "ranges.jsonc", `{"offsets": [-1, 5]}`)
	if _, err := execute(t, "set", "--manifests", store, "--path", "a", "--ranges", ranges); err == nil {
		t.Fatal("expected error for negative offset")
	}
}

func TestManifestStoreFromConfig(t *testing.T) {
	root := t.TempDir()
	cfgPath := writeFile(t, "redactfs.yaml", "paths:\n  root: "+root+"\n")
	t.Setenv(config.EnvironmentVariable, cfgPath)

	ranges := writeFile(t, "ranges.jsonc", `{"ranges": [[0, 1]]}`)
	if _, err := execute(t, "set", "--path", "a.txt", "--ranges", ranges); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "manifests")); err != nil {
		t.Errorf("manifest store not created under config root: %v", err)
	}
}

func TestManifestStoreRequired(t *testing.T) {
	t.Setenv(config.EnvironmentVariable, "")
	if _, err := execute(t, "clear", "--path", "a.txt"); err == nil || !strings.Contains(err.Error(), "--manifests") {
		t.Fatalf("expected --manifests error, got %v", err)
	}
}

func TestLs(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "foo"), nil, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.Mkdir(filepath.Join(dir, "bar"), 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	out, err := execute(t, "ls", dir)
	if err != nil {
		t.Fatalf("ls: %v", err)
	}
	if !strings.Contains(out, "file    foo\n") || !strings.Contains(out, "dir     bar\n") {
		t.Errorf("ls output = %q", out)
	}
	if strings.Contains(out, " .\n") || strings.Contains(out, " ..\n") {
		t.Errorf("ls output includes dot entries: %q", out)
	}

	out, err = execute(t, "ls", "--dirs-only", dir)
	if err != nil {
		t.Fatalf("ls --dirs-only: %v", err)
	}
	if out != "dir     bar\n" {
		t.Errorf("ls --dirs-only output = %q", out)
	}
}

func TestLsMissingDirectory(t *testing.T) {
	if _, err := execute(t, "ls", filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestVolume(t *testing.T) {
	out, err := execute(t, "volume", "/storage/emulated/10/Android/data/com.example")
	if err != nil {
		t.Fatalf("volume: %v", err)
	}
	want := "volume: external_primary\nuser: 10\nmount: false\nmounted subtree: true\n"
	if out != want {
		t.Errorf("volume output:\n%s\nwant:\n%s", out, want)
	}

	out, err = execute(t, "volume", "/storage/ABCD-1234/DCIM")
	if err != nil {
		t.Fatalf("volume: %v", err)
	}
	want = "volume: abcd-1234\nmount: false\nmounted subtree: false\n"
	if out != want {
		t.Errorf("volume output:\n%s\nwant:\n%s", out, want)
	}
}

func TestUnknownCommand(t *testing.T) {
	if _, err := execute(t, "frobnicate"); err == nil {
		t.Fatal("expected error for unknown command")
	}
}

func TestHelp(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if err := run([]string{"--help"}, &stdout, &stderr); err != nil {
		t.Fatalf("help: %v", err)
	}
	if !strings.Contains(stderr.String(), "plan") || !strings.Contains(stderr.String(), "volume") {
		t.Errorf("help output missing commands:\n%s", stderr.String())
	}

	stderr.Reset()
	if err := run([]string{"plan", "--help"}, &stdout, &stderr); err != nil {
		t.Fatalf("plan --help: %v", err)
	}
	if !strings.Contains(stderr.String(), "--ranges") {
		t.Errorf("plan help missing flags:\n%s", stderr.String())
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "redactctl ") {
		t.Errorf("version output = %q", out)
	}
}
