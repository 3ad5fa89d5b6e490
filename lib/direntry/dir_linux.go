// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package direntry

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/hanwen/go-fuse/v2/fuse"
	"golang.org/x/sys/unix"
)

// direntHeaderSize is the fixed part of a linux_dirent64 record: d_ino,
// d_off, d_reclen and d_type. fuse.DirEntry.Parse reads it unchecked.
const direntHeaderSize = 19

// direntBufferSize matches the buffer the Go runtime uses for
// os.File.ReadDir.
const direntBufferSize = 8192

// Dir is an open lower-filesystem directory read with getdents64. A
// Dir is not safe for concurrent use.
type Dir struct {
	fd     int
	buffer []byte
	pos    int
	end    int
}

var _ Reader = (*Dir)(nil)

// Open opens the directory at path.
func Open(path string) (*Dir, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: path, Err: err}
	}
	return FromFd(fd), nil
}

// OpenAt opens the directory name relative to the directory dirfd.
func OpenAt(dirfd int, name string) (*Dir, error) {
	fd, err := unix.Openat(dirfd, name, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, &fs.PathError{Op: "openat", Path: name, Err: err}
	}
	return FromFd(fd), nil
}

// FromFd wraps an already-open directory descriptor. The Dir takes
// ownership of fd and closes it in Close.
func FromFd(fd int) *Dir {
	return &Dir{fd: fd, buffer: make([]byte, direntBufferSize)}
}

// Fd returns the underlying descriptor, or -1 after Close.
func (d *Dir) Fd() int {
	return d.fd
}

// Next returns the next raw entry, or io.EOF at the end of the
// directory.
func (d *Dir) Next() (RawEntry, error) {
	for {
		if d.pos >= d.end {
			if d.fd < 0 {
				return RawEntry{}, os.ErrClosed
			}
			n, err := unix.Getdents(d.fd, d.buffer)
			if err != nil {
				if errors.Is(err, unix.EINTR) {
					continue
				}
				return RawEntry{}, fmt.Errorf("getdents: %w", err)
			}
			if n <= 0 {
				return RawEntry{}, io.EOF
			}
			d.pos, d.end = 0, n
		}

		record := d.buffer[d.pos:d.end]
		if len(record) < direntHeaderSize {
			return RawEntry{}, fmt.Errorf("getdents: truncated record of %d bytes", len(record))
		}
		var parsed fuse.DirEntry
		reclen := parsed.Parse(record)
		if reclen < direntHeaderSize || reclen > len(record) {
			return RawEntry{}, fmt.Errorf("getdents: bad record length %d", reclen)
		}
		d.pos += reclen

		if parsed.Ino == 0 {
			continue
		}

		inode := parsed.Ino
		name := parsed.Name
		kind := uint8(parsed.Mode >> 12)

		if kind == KindUnknown && name != "." && name != ".." {
			resolved, err := d.statKind(name)
			if errors.Is(err, unix.ENOENT) {
				// Removed between getdents and fstatat.
				continue
			}
			if err != nil {
				return RawEntry{}, err
			}
			kind = resolved
		}

		return RawEntry{Inode: inode, Name: name, Kind: kind}, nil
	}
}

func (d *Dir) statKind(name string) (uint8, error) {
	var stat unix.Stat_t
	if err := unix.Fstatat(d.fd, name, &stat, unix.AT_SYMLINK_NOFOLLOW); err != nil {
		return KindUnknown, fmt.Errorf("fstatat %s: %w", name, err)
	}
	switch stat.Mode & unix.S_IFMT {
	case unix.S_IFREG:
		return KindRegular, nil
	case unix.S_IFDIR:
		return KindDirectory, nil
	case unix.S_IFLNK:
		return KindSymlink, nil
	case unix.S_IFIFO:
		return KindFIFO, nil
	case unix.S_IFCHR:
		return KindChar, nil
	case unix.S_IFBLK:
		return KindBlock, nil
	case unix.S_IFSOCK:
		return KindSocket, nil
	}
	return KindUnknown, nil
}

// Close releases the descriptor. Closing twice returns os.ErrClosed.
func (d *Dir) Close() error {
	if d.fd < 0 {
		return os.ErrClosed
	}
	err := unix.Close(d.fd)
	d.fd = -1
	d.pos, d.end = 0, 0
	return err
}

// ListPath opens path, lists it with filter and closes it.
func ListPath(path string, filter Filter) ([]Entry, error) {
	dir, err := Open(path)
	if err != nil {
		return nil, &ListError{Err: err}
	}
	entries, err := List(dir, filter)
	closeErr := dir.Close()
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", path, err)
	}
	if closeErr != nil {
		return nil, fmt.Errorf("closing %s: %w", path, closeErr)
	}
	return entries, nil
}
