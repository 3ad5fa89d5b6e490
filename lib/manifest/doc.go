// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package manifest persists per-file redaction range lists. It is the
// boundary between the metadata service that computes which bytes of
// a file are sensitive (for example, the GPS tags of a photo's EXIF
// block) and the filesystem read path that enforces it.
//
// Each [Manifest] is one CBOR file, sharded by the BLAKE3 hash of the
// file's path relative to the mount root:
//
//	<root>/<hex[:2]>/<hex>.cbor
//
// Writes are atomic (temporary file, then rename) and validate the
// offsets with [redaction.New] before anything reaches disk, so a
// stored manifest always builds an engine. A path with no manifest is
// the normal "no redaction needed" case.
//
// Store is safe for concurrent reads. Concurrent writes to the same
// path are last-writer-wins.
package manifest
