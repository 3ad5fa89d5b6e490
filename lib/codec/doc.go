// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the CBOR encoding used for redactfs on-disk
// state (redaction manifests).
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items, so
// the same manifest always produces identical bytes. The decoder
// ignores unknown fields, letting older daemons read manifests written
// by newer producers.
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// Types that are only ever stored as CBOR use `cbor` struct tags.
package codec
