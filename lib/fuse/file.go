// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fuse

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"syscall"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/redactfs/lib/redaction"
)

// fdReader reads from a file descriptor with pread.
type fdReader int

func (fd fdReader) ReadAt(dest []byte, off int64) (int, error) {
	total := 0
	for total < len(dest) {
		n, err := unix.Pread(int(fd), dest[total:], off+int64(total))
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return total, err
		}
		if n == 0 {
			return total, io.EOF
		}
		total += n
	}
	return total, nil
}

// fileHandle is an open lower file read through its redaction engine.
// Reads run concurrently; Release waits for them.
type fileHandle struct {
	mu       sync.RWMutex
	fd       int
	engine   *redaction.Engine
	relative string
	logger   *slog.Logger
}

var _ gofuse.FileHandle = (*fileHandle)(nil)
var _ gofuse.FileReader = (*fileHandle)(nil)
var _ gofuse.FileGetattrer = (*fileHandle)(nil)
var _ gofuse.FileReleaser = (*fileHandle)(nil)

func (f *fileHandle) Read(ctx context.Context, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.fd < 0 {
		return nil, syscall.EBADF
	}

	// The size is taken per read so appends to the lower file are
	// visible through an open handle.
	var stat unix.Stat_t
	if err := unix.Fstat(f.fd, &stat); err != nil {
		return nil, gofuse.ToErrno(err)
	}

	n, err := redaction.ReadAt(fdReader(f.fd), f.engine, dest, off, stat.Size)
	if err != nil && !errors.Is(err, io.EOF) {
		f.logger.Error("read failed",
			"path", f.relative,
			"offset", off,
			"size", len(dest),
			"error", err,
		)
		return nil, errnoOf(err)
	}
	return fuse.ReadResultData(dest[:n]), 0
}

func (f *fileHandle) Getattr(ctx context.Context, out *fuse.AttrOut) syscall.Errno {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.fd < 0 {
		return syscall.EBADF
	}

	var stat syscall.Stat_t
	if err := syscall.Fstat(f.fd, &stat); err != nil {
		return gofuse.ToErrno(err)
	}
	out.FromStat(&stat)
	return 0
}

func (f *fileHandle) Release(ctx context.Context) syscall.Errno {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fd < 0 {
		return syscall.EBADF
	}
	err := unix.Close(f.fd)
	f.fd = -1
	return gofuse.ToErrno(err)
}
