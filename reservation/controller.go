// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package reservation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/seatwise/boxoffice/lib/clock"
	"github.com/seatwise/boxoffice/lib/journal"
	"github.com/seatwise/boxoffice/lib/schema"
	"github.com/seatwise/boxoffice/lib/seatmap"
	"github.com/seatwise/boxoffice/payment"
	"github.com/seatwise/boxoffice/updates"
	"github.com/seatwise/boxoffice/venue"
)

// DefaultHoldTTL is how long the venue keeps a temporary hold.
const DefaultHoldTTL = 5 * time.Minute

// Venue is the boundary the controller drives. *venue.Client
// satisfies it.
type Venue interface {
	Structure(ctx context.Context) (*schema.Structure, error)
	Search(ctx context.Context, category string, count int) (*schema.Suggestion, error)
	Hold(ctx context.Context, zone, category string, seats []schema.Coord) (string, error)
	Confirm(ctx context.Context, reservationID string) (bool, error)
	Cancel(ctx context.Context, reservationID string) (bool, error)
}

// Config configures a Controller.
type Config struct {
	Venue Venue

	// Cache is the seat map the controller highlights proposals in.
	// Several controllers may share one cache only in tests; in
	// production each controller owns its own.
	Cache *seatmap.Cache

	// HoldTTL is the local expiry of a hold. Default: DefaultHoldTTL.
	HoldTTL time.Duration

	// JournalPath, if set, is where the live hold is journaled so a
	// restarted process can release it with Recover.
	JournalPath string

	// OnEvent, if set, receives lifecycle events. It runs after the
	// controller lock is released and may call back into the
	// controller.
	OnEvent func(Event)

	// Clock drives hold expiry. If nil, clock.Real() is used.
	Clock clock.Clock

	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Controller is the reservation state machine. Create with New.
//
// Observers registered with Watch run synchronously inside seat map
// mutations, some of which happen with the controller lock held: they
// must not call Controller methods directly.
type Controller struct {
	venue       Venue
	cache       *seatmap.Cache
	holdTTL     time.Duration
	journalPath string
	onEvent     func(Event)
	clock       clock.Clock
	logger      *slog.Logger

	mu          sync.Mutex
	state       State
	busy        bool
	proposal    *Proposal
	reservation *Reservation
	lastOutcome Outcome
	timer       *clock.Timer

	// generation advances on every hold and every terminal transition.
	// Timer callbacks and boundary results captured under an older
	// generation are stale.
	generation uint64
}

// New creates an idle Controller.
func New(config Config) (*Controller, error) {
	if config.Venue == nil {
		return nil, fmt.Errorf("reservation: venue is required")
	}
	if config.Cache == nil {
		return nil, fmt.Errorf("reservation: seat cache is required")
	}
	if config.HoldTTL < 0 {
		return nil, fmt.Errorf("reservation: hold TTL must be positive, got %s", config.HoldTTL)
	}
	if config.HoldTTL == 0 {
		config.HoldTTL = DefaultHoldTTL
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		venue:       config.Venue,
		cache:       config.Cache,
		holdTTL:     config.HoldTTL,
		journalPath: config.JournalPath,
		onEvent:     config.OnEvent,
		clock:       clk,
		logger:      logger,
	}, nil
}

// Status returns a copy of the controller's current state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	status := Status{State: c.state, Busy: c.busy, LastOutcome: c.lastOutcome}
	if c.proposal != nil {
		proposal := *c.proposal
		proposal.Seats = slices.Clone(proposal.Seats)
		status.Proposal = &proposal
	}
	if c.reservation != nil {
		reservation := *c.reservation
		reservation.Seats = slices.Clone(reservation.Seats)
		status.Reservation = &reservation
	}
	return status
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Watch registers fn for seat state changes keyed by seat. The
// returned function unregisters it.
func (c *Controller) Watch(fn func([]seatmap.Change)) (unwatch func()) {
	return c.cache.Subscribe(fn)
}

// Search asks the venue for count seats in category and highlights the
// result. It is refused with ErrReservationActive while a hold is
// live; searching again while only a proposal exists replaces it.
//
// No match, and a match whose seats are all taken in the cache by the
// time it arrives, both return an error wrapping
// venue.ErrNoSeatsAvailable.
func (c *Controller) Search(ctx context.Context, category string, count int) (Proposal, error) {
	if count <= 0 {
		return Proposal{}, fmt.Errorf("reservation: search: seat count must be positive, got %d", count)
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return Proposal{}, ErrBusy
	}
	if c.state == Held || c.state == Paying {
		c.mu.Unlock()
		return Proposal{}, ErrReservationActive
	}
	c.state = Searching
	c.busy = true
	c.proposal = nil
	c.mu.Unlock()

	suggestion, err := c.venue.Search(ctx, category, count)

	c.mu.Lock()
	c.busy = false
	if err != nil {
		c.state = Idle
		c.cache.ResetSuggested()
		c.mu.Unlock()
		return Proposal{}, fmt.Errorf("reservation: search %s: %w", category, err)
	}

	highlighted := c.cache.Highlight(suggestion.Zone, suggestion.Category, suggestion.Seats)
	if len(highlighted) == 0 {
		c.state = Idle
		c.mu.Unlock()
		c.logger.Info("search result already taken",
			"zone", suggestion.Zone,
			"category", suggestion.Category,
			"seats", len(suggestion.Seats),
		)
		return Proposal{}, fmt.Errorf("reservation: search %s: proposed seats are no longer free: %w",
			category, venue.ErrNoSeatsAvailable)
	}

	proposal := Proposal{Zone: suggestion.Zone, Category: suggestion.Category}
	for _, seat := range highlighted {
		proposal.Seats = append(proposal.Seats, seat.Key.Coord())
	}
	c.proposal = &proposal
	c.state = HeldPending
	c.mu.Unlock()

	c.logger.Info("seats proposed",
		"zone", proposal.Zone,
		"category", proposal.Category,
		"seats", len(proposal.Seats),
		"requested", count,
	)
	c.emit(Event{Kind: EventProposed})
	return proposal, nil
}

// HoldAndProceed places a temporary hold on the proposed seats. On
// success the expiry timer starts and the hold is journaled. On
// failure the highlight is cleared and the controller returns to Idle.
func (c *Controller) HoldAndProceed(ctx context.Context) (Reservation, error) {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return Reservation{}, ErrBusy
	}
	if c.state == Held || c.state == Paying {
		c.mu.Unlock()
		return Reservation{}, ErrReservationActive
	}
	if c.state != HeldPending || c.proposal == nil {
		c.mu.Unlock()
		return Reservation{}, fmt.Errorf("%w: no proposal to hold (state %s)", ErrInvalidState, c.state)
	}
	proposal := *c.proposal
	c.busy = true
	c.mu.Unlock()

	reservationID, err := c.venue.Hold(ctx, proposal.Zone, proposal.Category, proposal.Seats)

	c.mu.Lock()
	c.busy = false
	if err != nil {
		c.state = Idle
		c.proposal = nil
		c.cache.ResetSuggested()
		c.mu.Unlock()
		return Reservation{}, fmt.Errorf("reservation: hold: %w", err)
	}

	now := c.clock.Now()
	reservation := Reservation{
		ID:        reservationID,
		Zone:      proposal.Zone,
		Category:  proposal.Category,
		Seats:     proposal.Seats,
		CreatedAt: now,
		ExpiresAt: now.Add(c.holdTTL),
	}
	c.reservation = &reservation
	c.proposal = nil
	c.state = Held
	c.generation++
	generation := c.generation
	c.timer = c.clock.AfterFunc(c.holdTTL, func() { c.expire(generation) })
	c.writeJournalLocked(reservation)
	c.mu.Unlock()

	c.logger.Info("hold acquired",
		"reservation_id", reservation.ID,
		"zone", reservation.Zone,
		"category", reservation.Category,
		"seats", len(reservation.Seats),
		"expires_at", reservation.ExpiresAt,
	)
	c.emit(Event{Kind: EventHeld, ReservationID: reservation.ID})
	return reservation, nil
}

// Confirm pays for the live hold with method and, if the payment is
// approved, confirms the purchase with the venue.
//
// Cancelled input, invalid input, a denied payment, a payment
// boundary failure, a confirm boundary failure, and a false confirm
// answer all leave the hold live and return an error; the caller may
// retry, possibly with another method, until the hold expires. If the
// hold expires while the attempt is outstanding the payment result is
// discarded and ErrExpired is returned.
func (c *Controller) Confirm(ctx context.Context, method payment.Method) error {
	if method == nil {
		return fmt.Errorf("reservation: confirm: payment method is required")
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	if c.state != Held || c.reservation == nil {
		c.mu.Unlock()
		return ErrNoHold
	}
	reservation := *c.reservation
	generation := c.generation
	c.state = Paying
	c.busy = true
	c.mu.Unlock()

	logger := c.logger.With("reservation_id", reservation.ID, "method", method.Kind())

	outcome, err := c.pay(ctx, method, reservation)

	c.mu.Lock()
	if c.generation != generation {
		c.busy = false
		c.mu.Unlock()
		logger.Warn("payment result discarded, hold expired", "outcome", outcome)
		return ErrExpired
	}
	if err != nil || outcome != payment.Approved {
		c.state = Held
		c.busy = false
		c.mu.Unlock()
		if err == nil {
			err = payment.ErrDenied
		}
		err = fmt.Errorf("reservation: payment: %w", err)
		logger.Info("payment rejected", "outcome", outcome, "error", err)
		c.emit(Event{Kind: EventPaymentRejected, ReservationID: reservation.ID, Err: err})
		return err
	}
	c.mu.Unlock()

	confirmed, err := c.venue.Confirm(ctx, reservation.ID)

	c.mu.Lock()
	c.busy = false
	if c.generation != generation {
		// The local timer fired during the confirm call. The venue's
		// answer is still authoritative.
		if err == nil && confirmed {
			c.lastOutcome = OutcomeConfirmed
			c.mu.Unlock()
			logger.Warn("venue confirmed after local expiry")
			c.emit(Event{Kind: EventConfirmed, ReservationID: reservation.ID})
			return nil
		}
		c.mu.Unlock()
		return ErrExpired
	}
	if err != nil {
		c.state = Held
		c.mu.Unlock()
		return fmt.Errorf("reservation: confirm: %w", err)
	}
	if !confirmed {
		c.state = Held
		c.mu.Unlock()
		return ErrConfirmRejected
	}
	c.finishLocked(OutcomeConfirmed)
	c.mu.Unlock()

	logger.Info("purchase confirmed", "seats", len(reservation.Seats))
	c.emit(Event{Kind: EventConfirmed, ReservationID: reservation.ID})
	return nil
}

func (c *Controller) pay(ctx context.Context, method payment.Method, reservation Reservation) (payment.Outcome, error) {
	details, err := method.CollectInput(ctx)
	if err != nil {
		return "", err
	}
	if err := method.Validate(details); err != nil {
		return payment.InvalidInput, err
	}
	return method.Submit(ctx, details, payment.ReservationContext{
		ReservationID: reservation.ID,
		Zone:          reservation.Zone,
		Category:      reservation.Category,
		Seats:         reservation.Seats,
	})
}

// Cancel releases the live hold, or drops an unheld proposal. The
// cancel boundary call is best effort: when it fails, local state is
// cleared anyway and the venue's TTL releases the seats. Such soft
// failures are logged and reported through OnEvent, not returned.
func (c *Controller) Cancel(ctx context.Context) error {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	switch {
	case c.state == HeldPending:
		c.proposal = nil
		c.state = Idle
		c.cache.ResetSuggested()
		c.lastOutcome = OutcomeCancelled
		c.mu.Unlock()
		c.emit(Event{Kind: EventCancelled})
		return nil
	case c.state != Held || c.reservation == nil:
		c.mu.Unlock()
		return ErrNoHold
	}
	reservation := *c.reservation
	generation := c.generation
	c.busy = true
	c.mu.Unlock()

	softErr := c.releaseHold(ctx, reservation.ID)

	c.mu.Lock()
	c.busy = false
	if c.generation != generation {
		c.mu.Unlock()
		return nil
	}
	c.finishLocked(OutcomeCancelled)
	c.mu.Unlock()

	c.logger.Info("hold cancelled", "reservation_id", reservation.ID)
	c.emit(Event{Kind: EventCancelled, ReservationID: reservation.ID, Err: softErr})
	return nil
}

// releaseHold calls the cancel boundary and logs a failure. The
// returned error is informational.
func (c *Controller) releaseHold(ctx context.Context, reservationID string) error {
	released, err := c.venue.Cancel(ctx, reservationID)
	if err == nil && !released {
		err = fmt.Errorf("venue answered false to cancel")
	}
	if err != nil {
		c.logger.Warn("cancel failed, relying on venue TTL",
			"reservation_id", reservationID,
			"error", err,
		)
	}
	return err
}

// expire runs on the timer goroutine.
func (c *Controller) expire(generation uint64) {
	c.mu.Lock()
	if c.generation != generation || c.reservation == nil {
		c.mu.Unlock()
		return
	}
	reservationID := c.reservation.ID
	c.finishLocked(OutcomeExpired)
	c.mu.Unlock()

	c.logger.Info("hold expired", "reservation_id", reservationID)
	c.emit(Event{Kind: EventExpired, ReservationID: reservationID, Err: ErrExpired})
}

// finishLocked ends the live reservation with outcome. The busy flag
// is left to the caller that owns it. Must be called with c.mu held.
func (c *Controller) finishLocked(outcome Outcome) {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.generation++
	c.reservation = nil
	c.proposal = nil
	c.state = Idle
	c.lastOutcome = outcome
	c.cache.ResetSuggested()
	c.clearJournalLocked()
}

// HandleSnapshot applies a push or resync snapshot to the seat map.
// It implements updates.Listener. Before the first Load, the snapshot
// is loaded instead of applied. If the snapshot takes every proposed
// seat while no hold has been placed, the proposal is dropped.
func (c *Controller) HandleSnapshot(ctx context.Context, snapshot *schema.Structure, source updates.Source) error {
	if !c.cache.Loaded() {
		if err := c.cache.Load(snapshot); err != nil {
			return err
		}
		c.logger.Info("seat map loaded", "source", source, "zones", len(snapshot.Zones))
		return nil
	}

	result, err := c.cache.ApplyDelta(snapshot)
	if err != nil {
		return err
	}
	if result.Changed > 0 || result.Unknown > 0 {
		c.logger.Debug("snapshot applied",
			"source", source,
			"changed", result.Changed,
			"unknown", result.Unknown,
		)
	}

	c.mu.Lock()
	if c.state != HeldPending || c.busy || len(c.cache.Suggested()) > 0 {
		c.mu.Unlock()
		return nil
	}
	c.proposal = nil
	c.state = Idle
	c.mu.Unlock()

	c.logger.Info("proposed seats taken by another client")
	c.emit(Event{Kind: EventProposalLost, Err: venue.ErrNoSeatsAvailable})
	return nil
}

// Reload fetches the full structure and replaces the seat map with it.
// A proposal is dropped. A live hold is released (best effort) and
// ErrInvalidated is returned, since the seats it named may no longer
// exist.
func (c *Controller) Reload(ctx context.Context) error {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	c.busy = true
	c.mu.Unlock()

	structure, err := c.venue.Structure(ctx)

	c.mu.Lock()
	c.busy = false
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("reservation: reload: %w", err)
	}
	if err := c.cache.Load(structure); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("reservation: reload: %w", err)
	}
	var invalidated *Reservation
	switch {
	case c.reservation != nil:
		invalidated = c.reservation
		c.finishLocked(OutcomeInvalidated)
	case c.state == HeldPending:
		c.proposal = nil
		c.state = Idle
	}
	c.mu.Unlock()

	c.logger.Info("seat map reloaded", "zones", len(structure.Zones))
	if invalidated == nil {
		return nil
	}
	softErr := c.releaseHold(ctx, invalidated.ID)
	c.emit(Event{Kind: EventInvalidated, ReservationID: invalidated.ID, Err: softErr})
	return ErrInvalidated
}

// Recover releases a hold journaled by a previous process. It returns
// the journaled entry and whether it was still live (and therefore
// cancelled). An expired entry is simply cleared. The controller must
// be idle.
func (c *Controller) Recover(ctx context.Context) (journal.Entry, bool, error) {
	if c.journalPath == "" {
		return journal.Entry{}, false, ErrNoJournal
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return journal.Entry{}, false, ErrBusy
	}
	if c.state != Idle {
		c.mu.Unlock()
		return journal.Entry{}, false, fmt.Errorf("%w: recover requires idle (state %s)", ErrInvalidState, c.state)
	}
	c.busy = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.busy = false
		c.mu.Unlock()
	}()

	entry, live, err := journal.Check(c.journalPath, c.clock.Now())
	if err != nil {
		return journal.Entry{}, false, fmt.Errorf("reservation: recover: %w", err)
	}
	if !live {
		if entry.ReservationID != "" {
			c.logger.Info("journaled hold already expired", "reservation_id", entry.ReservationID)
		}
		return entry, false, journal.Clear(c.journalPath)
	}

	released, err := c.venue.Cancel(ctx, entry.ReservationID)
	if err != nil {
		return entry, true, fmt.Errorf("reservation: recover %s: %w", entry.ReservationID, err)
	}
	c.logger.Info("recovered orphaned hold",
		"reservation_id", entry.ReservationID,
		"released", released,
		"remaining", entry.ExpiresAt.Sub(c.clock.Now()),
	)
	return entry, true, journal.Clear(c.journalPath)
}

func (c *Controller) writeJournalLocked(reservation Reservation) {
	if c.journalPath == "" {
		return
	}
	err := journal.Write(c.journalPath, journal.Entry{
		ReservationID: reservation.ID,
		Zone:          reservation.Zone,
		Category:      reservation.Category,
		Seats:         reservation.Seats,
		CreatedAt:     reservation.CreatedAt,
		ExpiresAt:     reservation.ExpiresAt,
	})
	if err != nil {
		c.logger.Warn("writing hold journal failed", "path", c.journalPath, "error", err)
	}
}

func (c *Controller) clearJournalLocked() {
	if c.journalPath == "" {
		return
	}
	if err := journal.Clear(c.journalPath); err != nil {
		c.logger.Warn("clearing hold journal failed", "path", c.journalPath, "error", err)
	}
}

func (c *Controller) emit(event Event) {
	if c.onEvent != nil {
		c.onEvent(event)
	}
}

var _ updates.Listener = (*Controller)(nil)

// IsRetryable reports whether err leaves the hold live so the caller
// can try again before it expires.
func IsRetryable(err error) bool {
	return errors.Is(err, payment.ErrDenied) ||
		errors.Is(err, payment.ErrInvalidInput) ||
		errors.Is(err, payment.ErrCancelled) ||
		errors.Is(err, ErrConfirmRejected) ||
		venue.IsNetworkFailure(err)
}
