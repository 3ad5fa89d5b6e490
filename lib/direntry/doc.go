// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package direntry lists directories of the lower filesystem for
// readdir requests on paths the media index does not track.
//
// [List] drains a [Reader] of raw entries, drops "." and "..", applies
// an optional [Filter], and returns value [Entry] records in the order
// the lower filesystem produced them. Enumeration failures are
// reported as a [*ListError] wrapping [ErrEnumeration]; a failed
// listing is never returned as an empty directory.
//
// On Linux, [Dir] reads entries straight from getdents64, carrying the
// d_type the kernel reports so that [IsDirectory] is a field test and
// never a stat. Lower filesystems that report DT_UNKNOWN are resolved
// once per entry with fstatat inside [Dir.Next].
package direntry
