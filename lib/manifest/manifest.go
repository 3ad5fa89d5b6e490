// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/redactfs/lib/codec"
	"github.com/bureau-foundation/redactfs/lib/redaction"
)

// Manifest is the stored redaction state of one file.
type Manifest struct {
	// Path is the file path relative to the mount root, in the
	// canonical form returned by CleanPath.
	Path string `cbor:"path"`

	// Offsets holds start/end pairs, flat, in producer order.
	Offsets []int64 `cbor:"offsets"`

	// Source names the producer that computed the ranges.
	Source string `cbor:"source,omitempty"`

	// Size is the file size the ranges were computed against. Zero
	// means unknown.
	Size int64 `cbor:"size,omitempty"`
}

// Count returns the number of offset pairs.
func (m Manifest) Count() int {
	return len(m.Offsets) / 2
}

// Engine builds the redaction engine for the manifest.
func (m Manifest) Engine() (*redaction.Engine, error) {
	return redaction.New(m.Count(), m.Offsets)
}

// CleanPath canonicalizes a mount-relative path: slash separated,
// rooted, no trailing slash, no dot segments.
func CleanPath(name string) string {
	return path.Clean("/" + strings.ReplaceAll(name, "\\", "/"))
}

// Store manages manifests under one root directory.
type Store struct {
	root string
}

// NewStore creates a Store rooted at root, creating the directory if
// it does not exist.
func NewStore(root string) (*Store, error) {
	if root == "" {
		return nil, errors.New("manifest root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating manifest directory %s: %w", root, err)
	}
	return &Store{root: root}, nil
}

// Root returns the store directory.
func (s *Store) Root() string {
	return s.root
}

// key returns the hex BLAKE3 digest naming the manifest of a
// canonical path.
func key(canonical string) string {
	sum := blake3.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

func (s *Store) filePath(canonical string) string {
	digest := key(canonical)
	return filepath.Join(s.root, digest[:2], digest+".cbor")
}

// Put validates and atomically stores a manifest, replacing any
// previous manifest for the same path.
func (s *Store) Put(manifest Manifest) error {
	manifest.Path = CleanPath(manifest.Path)
	if _, err := manifest.Engine(); err != nil {
		return fmt.Errorf("manifest for %s: %w", manifest.Path, err)
	}
	if manifest.Size < 0 {
		return fmt.Errorf("manifest for %s: negative size %d", manifest.Path, manifest.Size)
	}

	data, err := codec.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("encoding manifest for %s: %w", manifest.Path, err)
	}

	finalPath := s.filePath(manifest.Path)
	if err := os.MkdirAll(filepath.Dir(finalPath), 0o755); err != nil {
		return fmt.Errorf("creating manifest shard directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(s.root, "manifest-*.cbor")
	if err != nil {
		return fmt.Errorf("creating temp manifest file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing manifest: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp manifest file: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return fmt.Errorf("renaming manifest to %s: %w", finalPath, err)
	}

	success = true
	return nil
}

// Raw returns the encoded manifest bytes for name. The error wraps
// os.ErrNotExist if no manifest is stored.
func (s *Store) Raw(name string) ([]byte, error) {
	canonical := CleanPath(name)
	data, err := os.ReadFile(s.filePath(canonical))
	if err != nil {
		return nil, fmt.Errorf("reading manifest for %s: %w", canonical, err)
	}
	return data, nil
}

// Get loads the manifest for name. The error wraps os.ErrNotExist if
// no manifest is stored.
func (s *Store) Get(name string) (Manifest, error) {
	canonical := CleanPath(name)
	data, err := s.Raw(canonical)
	if err != nil {
		return Manifest{}, err
	}

	var manifest Manifest
	if err := codec.Unmarshal(data, &manifest); err != nil {
		return Manifest{}, fmt.Errorf("decoding manifest for %s: %w", canonical, err)
	}
	if manifest.Path != canonical {
		return Manifest{}, fmt.Errorf("manifest for %s records path %q", canonical, manifest.Path)
	}
	return manifest, nil
}

// Engine returns the redaction engine for name. A missing manifest
// yields an engine with no ranges and a nil error; any other failure
// is returned, and callers must not serve the file unredacted.
func (s *Store) Engine(name string) (*redaction.Engine, error) {
	manifest, err := s.Get(name)
	if errors.Is(err, os.ErrNotExist) {
		return redaction.New(0, nil)
	}
	if err != nil {
		return nil, err
	}
	engine, err := manifest.Engine()
	if err != nil {
		return nil, fmt.Errorf("manifest for %s: %w", manifest.Path, err)
	}
	return engine, nil
}

// Delete removes the manifest for name. Removing a manifest that does
// not exist is not an error.
func (s *Store) Delete(name string) error {
	canonical := CleanPath(name)
	if err := os.Remove(s.filePath(canonical)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing manifest for %s: %w", canonical, err)
	}
	return nil
}
