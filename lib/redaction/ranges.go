// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package redaction

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"
)

var (
	// ErrInvalidRanges is wrapped by every construction error.
	ErrInvalidRanges = errors.New("invalid redaction ranges")

	// ErrInvalidRequest is returned by PlanRead for a negative offset
	// or size, or a window whose end overflows int64.
	ErrInvalidRequest = errors.New("invalid read request")
)

// Range is a half-open interval [Start, End) of byte offsets that must
// be redacted.
type Range struct {
	Start int64
	End   int64
}

// Length returns End - Start.
func (r Range) Length() int64 {
	return r.End - r.Start
}

// Contains reports whether offset lies inside the range.
func (r Range) Contains(offset int64) bool {
	return r.Start <= offset && offset < r.End
}

// Span is one contiguous piece of a planned read. Spans of one plan
// are in ascending Start order and tile the request window.
type Span struct {
	Start    int64
	Length   int64
	Redacted bool
}

// End returns Start + Length.
func (s Span) End() int64 {
	return s.Start + s.Length
}

func (s Span) String() string {
	kind := "data"
	if s.Redacted {
		kind = "redaction"
	}
	return fmt.Sprintf("(%d,%d,%s)", s.Start, s.Length, kind)
}

// RangeError describes why a construction input was rejected. Index
// is the zero-based pair index, or -1 when the error concerns the
// array as a whole.
type RangeError struct {
	Index  int
	Start  int64
	End    int64
	Reason string
}

func (e *RangeError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %s", ErrInvalidRanges, e.Reason)
	}
	return fmt.Sprintf("%s: pair %d [%d, %d): %s", ErrInvalidRanges, e.Index, e.Start, e.End, e.Reason)
}

func (e *RangeError) Unwrap() error {
	return ErrInvalidRanges
}

// Engine holds the normalized redaction ranges of one open file.
type Engine struct {
	ranges []Range
}

// empty is shared by every engine built from zero ranges, so the
// common no-redaction case allocates nothing.
var empty = &Engine{}

// New builds an Engine from count pairs packed into offsets as
// start0, end0, start1, end1, ... len(offsets) must be 2*count.
func New(count int, offsets []int64) (*Engine, error) {
	if count < 0 {
		return nil, &RangeError{Index: -1, Reason: fmt.Sprintf("negative range count %d", count)}
	}
	if len(offsets) != 2*count {
		return nil, &RangeError{Index: -1, Reason: fmt.Sprintf("range count %d needs %d offsets, got %d", count, 2*count, len(offsets))}
	}
	if count == 0 {
		return empty, nil
	}

	ranges := make([]Range, count)
	for i := range ranges {
		ranges[i] = Range{Start: offsets[2*i], End: offsets[2*i+1]}
	}
	return normalize(ranges)
}

// NewFromRanges builds an Engine from typed ranges. The input slice is
// not retained or modified.
func NewFromRanges(ranges []Range) (*Engine, error) {
	if len(ranges) == 0 {
		return empty, nil
	}
	return normalize(slices.Clone(ranges))
}

// normalize validates, sorts and merges ranges in place. It takes
// ownership of the slice.
func normalize(ranges []Range) (*Engine, error) {
	for i, r := range ranges {
		if r.Start < 0 || r.End < 0 {
			return nil, &RangeError{Index: i, Start: r.Start, End: r.End, Reason: "negative offset"}
		}
		if r.Start >= r.End {
			return nil, &RangeError{Index: i, Start: r.Start, End: r.End, Reason: "start must be less than end"}
		}
	}

	slices.SortFunc(ranges, func(a, b Range) int {
		switch {
		case a.Start < b.Start:
			return -1
		case a.Start > b.Start:
			return 1
		}
		return 0
	})

	// Single sweep: extend the last kept range while the next one
	// overlaps or touches it.
	merged := ranges[:1]
	for _, r := range ranges[1:] {
		last := &merged[len(merged)-1]
		if r.Start <= last.End {
			if r.End > last.End {
				last.End = r.End
			}
			continue
		}
		merged = append(merged, r)
	}

	return &Engine{ranges: slices.Clip(merged)}, nil
}

// IsRedactionNeeded reports whether any byte of the file is redacted.
func (e *Engine) IsRedactionNeeded() bool {
	return e != nil && len(e.ranges) > 0
}

// Len returns the number of normalized ranges.
func (e *Engine) Len() int {
	if e == nil {
		return 0
	}
	return len(e.ranges)
}

// Ranges returns a copy of the normalized ranges.
func (e *Engine) Ranges() []Range {
	if e == nil {
		return nil
	}
	return slices.Clone(e.ranges)
}

// Covers reports whether offset lies in a redacted range.
func (e *Engine) Covers(offset int64) bool {
	if !e.IsRedactionNeeded() {
		return false
	}
	index := e.firstEndingAfter(offset)
	return index < len(e.ranges) && e.ranges[index].Contains(offset)
}

// PlanRead returns the spans needed to fulfill a read of size bytes at
// offset. A zero size yields an empty plan.
func (e *Engine) PlanRead(offset, size int64) ([]Span, error) {
	return e.AppendPlan(nil, offset, size)
}

// AppendPlan appends the plan for a read of size bytes at offset to dst
// and returns the extended slice. Passing a reused dst[:0] avoids an
// allocation per read.
func (e *Engine) AppendPlan(dst []Span, offset, size int64) ([]Span, error) {
	if offset < 0 || size < 0 {
		return dst, fmt.Errorf("%w: offset %d, size %d", ErrInvalidRequest, offset, size)
	}
	if size > math.MaxInt64-offset {
		return dst, fmt.Errorf("%w: window [%d, +%d) overflows", ErrInvalidRequest, offset, size)
	}
	if size == 0 {
		return dst, nil
	}

	end := offset + size
	if !e.IsRedactionNeeded() {
		return append(dst, Span{Start: offset, Length: size}), nil
	}

	cursor := offset
	for _, r := range e.ranges[e.firstEndingAfter(offset):] {
		if r.Start >= end {
			break
		}
		if r.Start > cursor {
			dst = append(dst, Span{Start: cursor, Length: r.Start - cursor})
			cursor = r.Start
		}
		redactedEnd := min(r.End, end)
		dst = append(dst, Span{Start: cursor, Length: redactedEnd - cursor, Redacted: true})
		cursor = redactedEnd
	}
	if cursor < end {
		dst = append(dst, Span{Start: cursor, Length: end - cursor})
	}
	return dst, nil
}

// firstEndingAfter returns the index of the first range whose End is
// greater than offset, or len(e.ranges) if there is none.
func (e *Engine) firstEndingAfter(offset int64) int {
	return sort.Search(len(e.ranges), func(i int) bool {
		return e.ranges[i].End > offset
	})
}
