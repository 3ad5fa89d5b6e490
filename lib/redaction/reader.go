// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package redaction

import (
	"errors"
	"fmt"
	"io"
)

// Reader serves reads of one file through its Engine: data spans come
// from the source, redacted spans are zero-filled. It implements
// io.ReaderAt and is safe for concurrent use when the source is.
type Reader struct {
	source io.ReaderAt
	engine *Engine
	size   int64
}

// NewReader returns a Reader over source, which holds size bytes.
func NewReader(source io.ReaderAt, engine *Engine, size int64) *Reader {
	return &Reader{source: source, engine: engine, size: size}
}

// Size returns the file size the Reader clamps reads to.
func (r *Reader) Size() int64 {
	return r.size
}

// Engine returns the engine the Reader plans with.
func (r *Reader) Engine() *Engine {
	return r.engine
}

// ReadAt implements io.ReaderAt.
func (r *Reader) ReadAt(dest []byte, off int64) (int, error) {
	return ReadAt(r.source, r.engine, dest, off, r.size)
}

// ReadAt fills dest with the file content at off, redacting every byte
// the engine covers. The read is clamped to fileSize; like
// io.ReaderAt, it returns io.EOF whenever fewer than len(dest) bytes
// are produced because the end of the file was reached. A short read
// from the source ends the result at that point.
func ReadAt(source io.ReaderAt, engine *Engine, dest []byte, off, fileSize int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("%w: negative offset %d", ErrInvalidRequest, off)
	}
	if off >= fileSize {
		return 0, io.EOF
	}

	want := int64(len(dest))
	clamped := false
	if remaining := fileSize - off; want > remaining {
		want = remaining
		clamped = true
	}

	// Most plans have a handful of spans; keep them off the heap.
	var planBuffer [8]Span
	plan, err := engine.AppendPlan(planBuffer[:0], off, want)
	if err != nil {
		return 0, err
	}

	produced := 0
	for _, span := range plan {
		part := dest[span.Start-off : span.End()-off]
		if span.Redacted {
			clear(part)
			produced += len(part)
			continue
		}

		n, err := source.ReadAt(part, span.Start)
		produced += n
		if n < len(part) {
			if err == nil || errors.Is(err, io.EOF) {
				return produced, io.EOF
			}
			return produced, fmt.Errorf("reading %d bytes at offset %d: %w", len(part), span.Start, err)
		}
	}

	if clamped {
		return produced, io.EOF
	}
	return produced, nil
}
