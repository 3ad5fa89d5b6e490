// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package redaction decides how a byte-range read of a file is
// fulfilled when parts of the file must never be disclosed verbatim.
//
// An [Engine] is built once per open file from the flat offset array
// supplied by the metadata service (pairs of start/end offsets, in any
// order, possibly overlapping). Construction validates the pairs and
// normalizes them into a sorted, disjoint list. Touching ranges are
// coalesced, so two ranges [10,20) and [20,30) are stored as [10,30).
//
// [Engine.PlanRead] turns a read request into an ordered list of
// [Span] values that exactly tile the request window. Data spans are
// read from the lower file; redacted spans are served as zero bytes.
// The plan never contains zero-length spans.
//
// [Reader] is the physical read executor: it performs one ReadAt per
// data span and zero-fills the rest, clamped to the file size.
//
// Engines are immutable and safe for concurrent use. A nil *Engine
// behaves as an engine with no ranges.
//
// Malformed construction input (count/length mismatch, negative
// offsets, start >= end) is rejected with a [*RangeError]. Pairs are
// never silently dropped: callers must not depend on partially-invalid
// range lists being honored.
package redaction
