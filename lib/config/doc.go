// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the redactfs
// daemon.
//
// Configuration is loaded from a single file named either by the
// REDACTFS_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There is no discovery and no fallback file.
//
// The file may contain environment sections (development, production)
// that override base values when [Config].Environment matches.
// Production defaults to warn-level logging and refuses debug mounts.
//
// Path fields support ${HOME}, ${REDACTFS_ROOT} and ${VAR:-default}
// expansion after loading. No other environment variables override
// config values.
package config
