// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"errors"

	"github.com/seatwise/boxoffice/cmd/boxoffice/cli"
	"github.com/seatwise/boxoffice/lib/seatmap"
	"github.com/seatwise/boxoffice/payment"
	"github.com/seatwise/boxoffice/reservation"
	"github.com/seatwise/boxoffice/venue"
)

// classify wraps a library error in the ToolError category that
// matches it. Errors that are already categorized pass through.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var toolErr *cli.ToolError
	var exitErr *cli.ExitError
	if errors.As(err, &toolErr) || errors.As(err, &exitErr) {
		return err
	}

	category := cli.CategoryInternal
	hint := ""
	switch {
	case errors.Is(err, venue.ErrNoSeatsAvailable):
		category = cli.CategoryNotFound
		hint = "Try a smaller --count or another category; 'boxoffice structure' shows what is free."
	case errors.Is(err, reservation.ErrNoHold), errors.Is(err, reservation.ErrNoJournal):
		category = cli.CategoryNotFound
	case errors.Is(err, payment.ErrInvalidInput):
		category = cli.CategoryValidation
	case errors.Is(err, reservation.ErrReservationActive):
		category = cli.CategoryConflict
		hint = "Run 'boxoffice recover' to release a hold left by an earlier run."
	case errors.Is(err, venue.ErrHoldRejected),
		errors.Is(err, payment.ErrDenied),
		errors.Is(err, payment.ErrCancelled),
		errors.Is(err, reservation.ErrExpired),
		errors.Is(err, reservation.ErrConfirmRejected),
		errors.Is(err, reservation.ErrInvalidated),
		errors.Is(err, reservation.ErrBusy),
		errors.Is(err, reservation.ErrInvalidState):
		category = cli.CategoryConflict
	case venue.IsNetworkFailure(err):
		category = cli.CategoryTransient
	case errors.Is(err, seatmap.ErrMalformedSnapshot), errors.Is(err, venue.ErrMalformedResponse):
		category = cli.CategoryInternal
	}
	return &cli.ToolError{Category: category, Err: err, Hint: hint}
}
