// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package direntry

import (
	"errors"
	"fmt"
	"io"
)

// Directory entry kinds as reported in d_type. The values match the
// Linux dirent ABI.
const (
	KindUnknown   uint8 = 0
	KindFIFO      uint8 = 1
	KindChar      uint8 = 2
	KindDirectory uint8 = 4
	KindBlock     uint8 = 6
	KindRegular   uint8 = 8
	KindSymlink   uint8 = 10
	KindSocket    uint8 = 12
)

// Type classifies an Entry.
type Type uint8

const (
	Other Type = iota
	Regular
	Directory
	Symlink
)

func (t Type) String() string {
	switch t {
	case Regular:
		return "file"
	case Directory:
		return "dir"
	case Symlink:
		return "symlink"
	default:
		return "other"
	}
}

// TypeOf maps a d_type value to a Type.
func TypeOf(kind uint8) Type {
	switch kind {
	case KindRegular:
		return Regular
	case KindDirectory:
		return Directory
	case KindSymlink:
		return Symlink
	default:
		return Other
	}
}

// Entry is one named, typed directory entry.
type Entry struct {
	Name string
	Type Type

	// Kind is the d_type the entry was classified from.
	Kind uint8
}

// RawEntry is a directory entry as the lower filesystem reports it.
type RawEntry struct {
	Inode uint64
	Name  string
	Kind  uint8
}

// Reader yields raw entries of one open directory. Next returns io.EOF
// once the directory is exhausted; any other error means enumeration
// failed.
type Reader interface {
	Next() (RawEntry, error)
}

// Filter decides whether a raw entry is included in a listing.
type Filter func(RawEntry) bool

// IsDirectory reports whether the lower filesystem typed the entry as
// a directory. It is the usual Filter for merged listings.
func IsDirectory(raw RawEntry) bool {
	return raw.Kind == KindDirectory
}

// ErrEnumeration is wrapped by every ListError.
var ErrEnumeration = errors.New("directory enumeration failed")

// ListError reports a failed listing. Read is the number of raw
// entries consumed before the failure.
type ListError struct {
	Read int
	Err  error
}

func (e *ListError) Error() string {
	return fmt.Sprintf("%s after %d entries: %v", ErrEnumeration, e.Read, e.Err)
}

func (e *ListError) Unwrap() []error {
	return []error{ErrEnumeration, e.Err}
}

// List drains reader and returns the entries that pass filter, in
// reader order. "." and ".." are always skipped. A nil filter admits
// every entry. On failure List returns nil and a *ListError.
func List(reader Reader, filter Filter) ([]Entry, error) {
	var entries []Entry
	read := 0
	for {
		raw, err := reader.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return entries, nil
			}
			return nil, &ListError{Read: read, Err: err}
		}
		read++

		if raw.Name == "." || raw.Name == ".." {
			continue
		}
		if filter != nil && !filter(raw) {
			continue
		}
		entries = append(entries, Entry{Name: raw.Name, Type: TypeOf(raw.Kind), Kind: raw.Kind})
	}
}
