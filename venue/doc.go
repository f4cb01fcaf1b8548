// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package venue is the HTTP client for the venue's reservation
// endpoints: the seat structure, seat search, temporary holds,
// purchase confirmation, hold cancellation, and payment.
//
// Every call is a fresh round trip; the client keeps no reservation
// state. Failures to reach the venue, and any non-2xx status the
// protocol does not give a meaning to, are returned as *Error
// (classify with IsNetworkFailure). The two non-2xx statuses with
// protocol meaning map to sentinels: a 404 from search is
// ErrNoSeatsAvailable and a 400 from hold is ErrHoldRejected.
package venue
