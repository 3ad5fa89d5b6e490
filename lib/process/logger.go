// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger returns a JSON logger on stderr at the given level and
// installs it as the slog default.
func NewLogger(level slog.Level) *slog.Logger {
	logger := NewLoggerTo(os.Stderr, level)
	slog.SetDefault(logger)
	return logger
}

// NewLoggerTo returns a JSON logger writing to w. It does not change
// the slog default.
func NewLoggerTo(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}
