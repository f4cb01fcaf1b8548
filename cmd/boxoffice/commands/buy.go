// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/spf13/pflag"

	"github.com/seatwise/boxoffice/cmd/boxoffice/cli"
	"github.com/seatwise/boxoffice/lib/seatmap"
	"github.com/seatwise/boxoffice/payment"
	"github.com/seatwise/boxoffice/reservation"
)

// releaseTimeout bounds the cancel call made while exiting, when the
// command context may already be cancelled.
const releaseTimeout = 10 * time.Second

// exitInterrupted is the conventional status for a SIGINT exit.
const exitInterrupted = 130

type buyParams struct {
	cli.GlobalParams
	Category string `flag:"category" desc:"seat category to buy (required)"`
	Count    int    `flag:"count,n" default:"1" desc:"number of adjacent seats"`
	Method   string `flag:"method,m" default:"card" desc:"payment method: card, paypal, or crypto"`
	Details  string `flag:"details,d" desc:"JSONC file with payment details (default: prompt)"`
	Attempts int    `flag:"attempts" default:"3" desc:"payment attempts before the hold is released"`
	Watch    bool   `flag:"watch,w" desc:"follow the venue's push channel and print seat changes"`
}

func (a *app) buyCommand() *cli.Command {
	var params buyParams
	return &cli.Command{
		Name:    "buy",
		Summary: "Search, hold, pay for, and confirm a block of seats",
		Description: `Run a full purchase. The venue proposes seats, boxoffice holds them
for the configured hold TTL (5 minutes by default), collects payment
details, and confirms the purchase once the payment is approved.

A refused payment can be retried until --attempts is used up or the
hold expires. Interrupting the command releases the hold.`,
		Usage: "boxoffice buy --category CATEGORY [--count N] [--method METHOD] [flags]",
		Examples: []cli.Example{
			{
				Description: "Buy two VIP seats, typing card details at the prompt",
				Command:     "boxoffice buy --category VIP --count 2",
			},
			{
				Description: "Pay with PayPal using details from a file",
				Command:     "boxoffice buy --category General -n 4 --method paypal --details paypal.jsonc",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("buy", &params)
		},
		Run: func(args []string) error {
			if err := checkSeatRequest(args, params.Category, params.Count); err != nil {
				return err
			}
			if params.Attempts <= 0 {
				return cli.Validation("--attempts must be positive, got %d", params.Attempts)
			}
			kind, err := payment.ParseKind(params.Method)
			if err != nil {
				return cli.Validation("%w", err)
			}
			s, err := a.openSession(params.GlobalParams)
			if err != nil {
				return err
			}
			return a.buy(s, params, kind)
		},
	}
}

func (a *app) buy(s *session, params buyParams, kind payment.Kind) error {
	ctx, stop := a.context()
	defer stop()

	unlock, err := s.lockJournal()
	if err != nil {
		return err
	}
	defer unlock()

	controller, err := s.controller(a.printEvent)
	if err != nil {
		return err
	}
	if err := controller.Reload(ctx); err != nil {
		return classify(err)
	}

	if params.Watch {
		unwatch := controller.Watch(a.printChanges)
		defer unwatch()
		channel, err := s.channel(controller)
		if err != nil {
			return err
		}
		channelCtx, cancelChannel := context.WithCancel(ctx)
		var wait sync.WaitGroup
		wait.Go(func() { channel.Run(channelCtx) })
		defer wait.Wait()
		defer cancelChannel()
	}

	method, err := a.paymentMethod(s, params, kind)
	if err != nil {
		return err
	}

	proposal, err := controller.Search(ctx, params.Category, params.Count)
	if err != nil {
		return classify(err)
	}
	a.stdout.Printf("Proposed %d of %d seats in %s / %s: %s\n",
		len(proposal.Seats), params.Count, proposal.Zone, proposal.Category, formatSeats(proposal.Seats))

	held, err := controller.HoldAndProceed(ctx)
	if err != nil {
		return classify(err)
	}
	defer a.releaseIfHeld(controller)
	a.stdout.Printf("Holding reservation %s until %s (%s)\n",
		held.ID, held.ExpiresAt.Local().Format(time.TimeOnly), held.Remaining(time.Now()).Round(time.Second))

	for attempt := 1; ; attempt++ {
		err = controller.Confirm(ctx, method)
		if err == nil {
			a.stdout.Printf("Purchase confirmed: reservation %s, %d seats\n", held.ID, len(held.Seats))
			return nil
		}
		if ctx.Err() != nil {
			a.stderr.Printf("Interrupted, releasing reservation %s\n", held.ID)
			return &cli.ExitError{Code: exitInterrupted}
		}
		if !reservation.IsRetryable(err) || attempt >= params.Attempts {
			return classify(err)
		}
		a.stderr.Printf("Payment not completed (attempt %d of %d): %v\n", attempt, params.Attempts, err)
	}
}

func (a *app) paymentMethod(s *session, params buyParams, kind payment.Kind) (payment.Method, error) {
	policy, err := s.config.PaymentPolicy()
	if err != nil {
		return nil, cli.Validation("%w", err)
	}
	var collector payment.Collector = payment.PromptCollector{Input: a.stdin, Output: a.stderr}
	if params.Details != "" {
		collector = payment.FileCollector{Path: params.Details}
	}
	method, err := payment.New(kind, collector, s.venue, payment.Options{Policy: policy, Logger: s.logger})
	if err != nil {
		return nil, cli.Internal("%w", err)
	}
	return method, nil
}

// releaseIfHeld cancels a hold the command is leaving behind.
func (a *app) releaseIfHeld(controller *reservation.Controller) {
	if controller.State() != reservation.Held {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(a.parent), releaseTimeout)
	defer cancel()
	if err := controller.Cancel(ctx); err != nil && !errors.Is(err, reservation.ErrNoHold) {
		a.stderr.Printf("Releasing hold: %v\n", err)
	}
}

func (a *app) printEvent(event reservation.Event) {
	switch event.Kind {
	case reservation.EventProposalLost:
		a.stderr.Printf("The proposed seats were taken by another buyer\n")
	case reservation.EventExpired:
		a.stderr.Printf("Reservation %s expired\n", event.ReservationID)
	case reservation.EventCancelled:
		if event.ReservationID == "" {
			return
		}
		if event.Err != nil {
			a.stderr.Printf("Reservation %s dropped locally; the venue will release it when it expires (%v)\n",
				event.ReservationID, event.Err)
			return
		}
		a.stderr.Printf("Reservation %s released\n", event.ReservationID)
	case reservation.EventInvalidated:
		a.stderr.Printf("Reservation %s invalidated by a seat map reload\n", event.ReservationID)
	}
}

func (a *app) printChanges(changes []seatmap.Change) {
	for _, change := range changes {
		if change.From == "" {
			continue
		}
		a.stdout.Printf("  %s %s -> %s\n", change.Key, change.From, change.To)
	}
}
