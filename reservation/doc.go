// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package reservation implements the client-side reservation
// lifecycle: search, hold, pay, and confirm, cancel, or expire.
//
// A [Controller] owns at most one reservation at a time. It drives the
// venue boundary, highlights proposed seats in the seat map, runs the
// hold's expiry timer, and reconciles push-delivered snapshots with
// the highlight. Every terminal transition (confirmed, cancelled,
// expired) stops the timer, clears the highlight and the hold journal,
// and returns the controller to [Idle].
//
// Boundary calls run without the controller lock held. While one is
// outstanding, every other action is refused with [ErrBusy]; snapshot
// delivery and the expiry timer are never blocked by it.
//
//	controller, _ := reservation.New(reservation.Config{Venue: client, Cache: cache})
//	proposal, err := controller.Search(ctx, "VIP", 2)
//	held, err := controller.HoldAndProceed(ctx)
//	err = controller.Confirm(ctx, method)
package reservation
