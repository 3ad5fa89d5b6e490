// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fuse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"syscall"
	"time"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/redactfs/lib/direntry"
	"github.com/bureau-foundation/redactfs/lib/manifest"
	"github.com/bureau-foundation/redactfs/lib/mountpath"
	"github.com/bureau-foundation/redactfs/lib/redaction"
)

// Options configures the FUSE mount.
type Options struct {
	// LowerDir is the real directory served through the mount.
	LowerDir string

	// Mountpoint is the directory where the filesystem is mounted.
	// It is created if it does not exist.
	Mountpoint string

	// VolumePath is the absolute storage path the mount root stands
	// for, e.g. /storage/emulated/0. Used to classify app-private
	// subtrees and to name the volume. Empty means the mount has no
	// app-private subtrees.
	VolumePath string

	// Manifests supplies the redaction ranges of each file.
	Manifests *manifest.Store

	// AllowOther permits other users (including root) to access
	// the mount. Requires user_allow_other in /etc/fuse.conf.
	AllowOther bool

	// Debug enables go-fuse request tracing.
	Debug bool

	// Logger receives diagnostic messages. If nil, errors are
	// written to stderr.
	Logger *slog.Logger
}

// Mount mounts the redacting filesystem. The caller must call Unmount
// on the returned Server when done.
func Mount(options Options) (*fuse.Server, error) {
	fsys, err := newFilesystem(options)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(options.Mountpoint, 0o755); err != nil {
		return nil, fmt.Errorf("creating mountpoint %s: %w", options.Mountpoint, err)
	}

	entryTimeout := 1 * time.Second
	attrTimeout := 1 * time.Second
	negativeTimeout := 100 * time.Millisecond

	root := &node{fs: fsys, relative: "/"}
	server, err := gofuse.Mount(options.Mountpoint, root, &gofuse.Options{
		EntryTimeout:    &entryTimeout,
		AttrTimeout:     &attrTimeout,
		NegativeTimeout: &negativeTimeout,
		MountOptions: fuse.MountOptions{
			FsName:     "redactfs:" + fsys.volume,
			Name:       "redactfs",
			AllowOther: options.AllowOther,
			Debug:      options.Debug,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("mounting FUSE filesystem at %s: %w", options.Mountpoint, err)
	}

	fsys.logger.Info("redacting filesystem mounted",
		"mountpoint", options.Mountpoint,
		"lower_dir", options.LowerDir,
		"volume", fsys.volume,
	)
	return server, nil
}

// filesystem is the state shared by every node of one mount.
type filesystem struct {
	lowerDir   string
	volumePath string
	volume     string
	manifests  *manifest.Store
	logger     *slog.Logger
}

func newFilesystem(options Options) (*filesystem, error) {
	if options.LowerDir == "" {
		return nil, errors.New("lower directory is required")
	}
	if options.Mountpoint == "" {
		return nil, errors.New("mountpoint is required")
	}
	if options.Manifests == nil {
		return nil, errors.New("manifest store is required")
	}
	info, err := os.Stat(options.LowerDir)
	if err != nil {
		return nil, fmt.Errorf("lower directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("lower directory %s is not a directory", options.LowerDir)
	}

	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
	}

	return &filesystem{
		lowerDir:   options.LowerDir,
		volumePath: options.VolumePath,
		volume:     mountpath.VolumeNameFromPath(options.VolumePath),
		manifests:  options.Manifests,
		logger:     logger,
	}, nil
}

// hostPath maps a mount-relative path to the lower filesystem.
func (f *filesystem) hostPath(relative string) string {
	return filepath.Join(f.lowerDir, filepath.FromSlash(relative))
}

// storagePath maps a mount-relative path to the storage path it
// represents to the classifier.
func (f *filesystem) storagePath(relative string) string {
	if f.volumePath == "" {
		return ""
	}
	return path.Join(f.volumePath, relative)
}

// engineFor returns the engine that governs reads of relative.
func (f *filesystem) engineFor(relative string) (*redaction.Engine, error) {
	if storage := f.storagePath(relative); storage != "" && mountpath.IsMountedSubtree(storage) {
		return redaction.New(0, nil)
	}
	return f.manifests.Engine(relative)
}

func stableAttr(stat *syscall.Stat_t) gofuse.StableAttr {
	return gofuse.StableAttr{
		Mode: uint32(stat.Mode) & syscall.S_IFMT,
		Ino:  stat.Ino,
	}
}

// direntMode returns the file type bits readdir reports for entry.
// d_type values are the S_IFMT bits shifted down by 12.
func direntMode(entry direntry.Entry) uint32 {
	return uint32(entry.Kind) << 12
}

// errnoOf extracts the errno carried by err, or EIO.
func errnoOf(err error) syscall.Errno {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno
	}
	return syscall.EIO
}

// node is one file, directory or symlink of the mount.
type node struct {
	gofuse.Inode
	fs *filesystem

	// relative is the slash-separated path from the mount root,
	// "/" for the root itself.
	relative string
}

var _ gofuse.InodeEmbedder = (*node)(nil)
var _ gofuse.NodeLookuper = (*node)(nil)
var _ gofuse.NodeGetattrer = (*node)(nil)
var _ gofuse.NodeReaddirer = (*node)(nil)
var _ gofuse.NodeOpener = (*node)(nil)
var _ gofuse.NodeReadlinker = (*node)(nil)
var _ gofuse.NodeSetattrer = (*node)(nil)

func (n *node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	childRelative := path.Join(n.relative, name)

	var stat syscall.Stat_t
	if err := syscall.Lstat(n.fs.hostPath(childRelative), &stat); err != nil {
		return nil, gofuse.ToErrno(err)
	}
	out.Attr.FromStat(&stat)

	child := &node{fs: n.fs, relative: childRelative}
	return n.NewInode(ctx, child, stableAttr(&stat)), 0
}

func (n *node) Getattr(ctx context.Context, fh gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	if getter, ok := fh.(gofuse.FileGetattrer); ok {
		return getter.Getattr(ctx, out)
	}

	var stat syscall.Stat_t
	if err := syscall.Lstat(n.fs.hostPath(n.relative), &stat); err != nil {
		return gofuse.ToErrno(err)
	}
	out.FromStat(&stat)
	return 0
}

// Setattr rejects every change: the mount is read-only.
func (n *node) Setattr(ctx context.Context, fh gofuse.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	return syscall.EROFS
}

func (n *node) Readdir(ctx context.Context) (gofuse.DirStream, syscall.Errno) {
	entries, err := direntry.ListPath(n.fs.hostPath(n.relative), nil)
	if err != nil {
		n.fs.logger.Error("readdir failed",
			"path", n.relative,
			"error", err,
		)
		return nil, errnoOf(err)
	}

	result := make([]fuse.DirEntry, 0, len(entries))
	for _, entry := range entries {
		result = append(result, fuse.DirEntry{
			Name: entry.Name,
			Mode: direntMode(entry),
		})
	}
	return gofuse.NewListDirStream(result), 0
}

func (n *node) Readlink(ctx context.Context) ([]byte, syscall.Errno) {
	target, err := os.Readlink(n.fs.hostPath(n.relative))
	if err != nil {
		return nil, gofuse.ToErrno(err)
	}
	return []byte(target), 0
}

func (n *node) Open(ctx context.Context, flags uint32) (gofuse.FileHandle, uint32, syscall.Errno) {
	if flags&(syscall.O_WRONLY|syscall.O_RDWR|syscall.O_APPEND|syscall.O_TRUNC) != 0 {
		return nil, 0, syscall.EROFS
	}

	engine, err := n.fs.engineFor(n.relative)
	if err != nil {
		n.fs.logger.Error("loading redaction manifest failed",
			"path", n.relative,
			"error", err,
		)
		return nil, 0, syscall.EIO
	}

	fd, err := unix.Open(n.fs.hostPath(n.relative), unix.O_RDONLY|unix.O_CLOEXEC|unix.O_NOFOLLOW, 0)
	if err != nil {
		return nil, 0, gofuse.ToErrno(err)
	}

	handle := &fileHandle{
		fd:       fd,
		engine:   engine,
		relative: n.relative,
		logger:   n.fs.logger,
	}

	// Redacted content must not be served from a page cache shared
	// with any other view of the file.
	var fuseFlags uint32
	if engine.IsRedactionNeeded() {
		fuseFlags = fuse.FOPEN_DIRECT_IO
		n.fs.logger.Debug("serving redacted file",
			"path", n.relative,
			"ranges", engine.Len(),
		)
	}
	return handle, fuseFlags, 0
}
