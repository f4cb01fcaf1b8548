// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package reservation

import (
	"time"

	"github.com/seatwise/boxoffice/lib/schema"
)

// State is the controller's lifecycle state.
type State int

const (
	// Idle: no proposal and no hold.
	Idle State = iota
	// Searching: a search call is outstanding.
	Searching
	// HeldPending: a search proposed seats, which are highlighted as
	// Suggested. HoldAndProceed places the hold.
	HeldPending
	// Held: the venue issued a reservation id and the expiry timer
	// is running.
	Held
	// Paying: a payment attempt or the confirm call following it is
	// outstanding.
	Paying
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Searching:
		return "searching"
	case HeldPending:
		return "held-pending"
	case Held:
		return "held"
	case Paying:
		return "paying"
	}
	return "unknown"
}

// Outcome is how the last reservation ended.
type Outcome string

const (
	OutcomeNone        Outcome = ""
	OutcomeConfirmed   Outcome = "confirmed"
	OutcomeCancelled   Outcome = "cancelled"
	OutcomeExpired     Outcome = "expired"
	OutcomeInvalidated Outcome = "invalidated"
)

// Proposal is a search result highlighted in the seat map. Seats holds
// only the coordinates that were free in the cache when highlighted.
type Proposal struct {
	Zone     string         `json:"zona"`
	Category string         `json:"categoria"`
	Seats    []schema.Coord `json:"asientos"`
}

// Reservation is a live hold.
type Reservation struct {
	ID        string         `json:"reserva_id"`
	Zone      string         `json:"zona"`
	Category  string         `json:"categoria"`
	Seats     []schema.Coord `json:"asientos"`
	CreatedAt time.Time      `json:"created_at"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// Remaining returns how long the hold has left at now, never negative.
func (r Reservation) Remaining(now time.Time) time.Duration {
	if left := r.ExpiresAt.Sub(now); left > 0 {
		return left
	}
	return 0
}

// Status is a point-in-time view of the controller.
type Status struct {
	State       State
	Busy        bool
	Proposal    *Proposal
	Reservation *Reservation
	LastOutcome Outcome
}

// EventKind names a lifecycle notification.
type EventKind string

const (
	EventProposed        EventKind = "proposed"
	EventProposalLost    EventKind = "proposal-lost"
	EventHeld            EventKind = "held"
	EventPaymentRejected EventKind = "payment-rejected"
	EventConfirmed       EventKind = "confirmed"
	EventCancelled       EventKind = "cancelled"
	EventExpired         EventKind = "expired"
	EventInvalidated     EventKind = "invalidated"
)

// Event is delivered to Config.OnEvent after the transition it
// describes. Err is set for rejections and soft failures.
type Event struct {
	Kind          EventKind
	ReservationID string
	Err           error
}
