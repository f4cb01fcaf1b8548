// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package reservation

import "errors"

var (
	// ErrBusy is returned while another boundary call is outstanding.
	ErrBusy = errors.New("reservation: another operation is in progress")

	// ErrReservationActive refuses a search while a hold is live.
	// Cancel first.
	ErrReservationActive = errors.New("reservation: a hold is already live")

	// ErrInvalidState is returned for an action the current state
	// does not allow, such as HoldAndProceed without a proposal.
	ErrInvalidState = errors.New("reservation: action not allowed in current state")

	// ErrNoHold is returned by Confirm and Cancel when nothing is held.
	ErrNoHold = errors.New("reservation: no live hold")

	// ErrExpired means the hold's TTL elapsed before the action
	// completed. Searching again is always possible.
	ErrExpired = errors.New("reservation: hold expired")

	// ErrConfirmRejected means the venue answered false to confirm.
	// The hold stays live.
	ErrConfirmRejected = errors.New("reservation: venue rejected confirmation")

	// ErrInvalidated is returned by Reload when a fresh structure
	// replaced the seat map under a live hold. The hold was released.
	ErrInvalidated = errors.New("reservation: hold invalidated by structure reload")

	// ErrNoJournal is returned by Recover when no journal path is
	// configured.
	ErrNoJournal = errors.New("reservation: no hold journal configured")
)
