// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec holds the CBOR configuration used for everything
// boxoffice writes to disk: the hold journal and snapshot recordings.
// Venue traffic stays JSON.
//
// Encoding is Core Deterministic (RFC 8949 §4.2), so one logical value
// always produces the same bytes. Types that implement
// encoding.TextMarshaler (time.Time among them) encode as text
// strings.
//
// Types with `json` tags need no `cbor` tags: the encoder falls back
// to the json tag, so wire types from lib/schema can be recorded
// unchanged.
package codec
