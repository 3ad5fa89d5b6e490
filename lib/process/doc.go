// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides entrypoint helpers shared by the redactfs
// binaries: the structured logger constructor and fatal error
// reporting for errors that occur before the logger exists.
package process
