// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package venue

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSeatsAvailable is the normal "nothing matched" search
	// outcome. It is not a network failure.
	ErrNoSeatsAvailable = errors.New("no seats available")

	// ErrHoldRejected means the venue refused a hold because at least
	// one requested seat is no longer free.
	ErrHoldRejected = errors.New("hold rejected")

	// ErrMalformedResponse means a 2xx response body did not have the
	// expected shape.
	ErrMalformedResponse = errors.New("malformed response")
)

// Error is a failed round trip to the venue: either the request never
// completed (StatusCode 0, Err set) or the venue answered with a
// status the protocol does not define for the call.
//
//	var venueErr *venue.Error
//	if errors.As(err, &venueErr) && venueErr.StatusCode >= 500 { ... }
type Error struct {
	// Op is the boundary call: "structure", "search", "hold",
	// "confirm", "cancel", or "pay".
	Op string

	// StatusCode is the HTTP status, or 0 when no response arrived.
	StatusCode int

	// Message is the response body, trimmed.
	Message string

	// Err is the transport error when StatusCode is 0.
	Err error
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("venue: %s: %v", e.Op, e.Err)
	}
	if e.Message == "" {
		return fmt.Sprintf("venue: %s: HTTP %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("venue: %s: HTTP %d: %s", e.Op, e.StatusCode, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// IsNetworkFailure reports whether err is a failed round trip.
func IsNetworkFailure(err error) bool {
	var venueErr *Error
	return errors.As(err, &venueErr)
}
