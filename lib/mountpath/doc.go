// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package mountpath recognizes the path shapes the redacting mount
// routes specially: the per-user Android/, Android/data and
// Android/obb trees under the emulated storage root, and the volume a
// path belongs to. All functions are pure string operations.
package mountpath
