// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"time"

	"github.com/spf13/pflag"

	"github.com/seatwise/boxoffice/cmd/boxoffice/cli"
)

type recoverParams struct {
	cli.GlobalParams
	cli.JSONOutput
}

type recoverResult struct {
	ReservationID string    `json:"reservation_id,omitempty"`
	Zone          string    `json:"zone,omitempty"`
	Category      string    `json:"category,omitempty"`
	Seats         int       `json:"seats,omitempty"`
	ExpiresAt     time.Time `json:"expires_at,omitzero"`
	Released      bool      `json:"released"`
}

func (a *app) recoverCommand() *cli.Command {
	var params recoverParams
	return &cli.Command{
		Name:    "recover",
		Summary: "Release a hold left behind by an interrupted purchase",
		Description: `Every hold is journaled until it is confirmed, cancelled, or expires.
If boxoffice died while holding seats, recover reads the journal and
cancels the hold so the seats go back on sale before the venue's own
timeout. An expired entry is just removed.`,
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("recover", &params)
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument %q", args[0])
			}
			s, err := a.openSession(params.GlobalParams)
			if err != nil {
				return err
			}
			ctx, stop := a.context()
			defer stop()

			unlock, err := s.lockJournal()
			if err != nil {
				return err
			}
			defer unlock()

			controller, err := s.controller(nil)
			if err != nil {
				return err
			}
			entry, live, err := controller.Recover(ctx)
			if err != nil {
				return classify(err)
			}

			result := recoverResult{
				ReservationID: entry.ReservationID,
				Zone:          entry.Zone,
				Category:      entry.Category,
				Seats:         len(entry.Seats),
				ExpiresAt:     entry.ExpiresAt,
				Released:      live,
			}
			if done, err := params.EmitJSON(a.stdout, result); done {
				return err
			}
			switch {
			case entry.ReservationID == "":
				a.stdout.Printf("No journaled hold\n")
			case live:
				a.stdout.Printf("Released reservation %s (%d seats in %s / %s)\n",
					entry.ReservationID, len(entry.Seats), entry.Zone, entry.Category)
			default:
				a.stdout.Printf("Reservation %s already expired at %s; journal cleared\n",
					entry.ReservationID, entry.ExpiresAt.Local().Format(time.DateTime))
			}
			return nil
		},
	}
}
