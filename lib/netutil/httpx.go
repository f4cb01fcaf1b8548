// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil holds HTTP response helpers shared by the venue
// client and the update channel.
//
// Every response body read is bounded by MaxResponseSize so that a
// misbehaving venue cannot exhaust client memory. A full stadium map
// is well under a megabyte; the bound only exists to stop pathological
// bodies.
package netutil

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// MaxResponseSize bounds response and push message reads: 16 MB.
const MaxResponseSize int64 = 16 << 20

// ReadResponse reads a response body up to MaxResponseSize bytes.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}

// DecodeResponse reads a response body (bounded) and JSON-decodes it
// into v.
func DecodeResponse(body io.Reader, v any) error {
	data, err := ReadResponse(body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	return json.Unmarshal(data, v)
}

// ErrorBody returns an error response body for diagnostics, trimmed of
// surrounding whitespace. Read errors are ignored.
func ErrorBody(body io.Reader) string {
	data, _ := ReadResponse(body)
	return strings.TrimSpace(string(data))
}

// DecodeBool reads a boolean response body. The venue answers confirm,
// cancel and payment calls with a bare "true" or "false", sometimes
// with a text/plain content type and a trailing newline; a JSON
// boolean is the same bytes, so both parse here.
func DecodeBool(body io.Reader) (bool, error) {
	data, err := ReadResponse(body)
	if err != nil {
		return false, fmt.Errorf("reading response body: %w", err)
	}
	return ParseBool(data)
}

// ParseBool parses a bare boolean body.
func ParseBool(data []byte) (bool, error) {
	switch strings.TrimSpace(string(data)) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, fmt.Errorf("expected true or false, got %q", truncate(string(data), 64))
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
