// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package fuse mounts a read-only, redacting view of a lower
// directory.
//
// Every read of a regular file is planned by a [redaction.Engine]
// loaded from the manifest store at open time and executed with one
// pread per data span; redacted spans are served as zero bytes. Files
// without a manifest get the empty engine, whose plan is a single data
// span. Files under the per-user Android/, Android/data and
// Android/obb trees (as classified by lib/mountpath against
// Options.VolumePath) are app-private and never consult manifests.
//
// Directory listings come straight from the lower filesystem through
// lib/direntry. A listing that fails is reported as an error, never as
// an empty directory. A manifest that cannot be loaded fails the open
// with EIO; the file is never served unredacted because of an error.
//
// The mount rejects every write with EROFS.
package fuse
