// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"strings"

	"github.com/spf13/pflag"

	"github.com/seatwise/boxoffice/cmd/boxoffice/cli"
	"github.com/seatwise/boxoffice/lib/schema"
)

type searchParams struct {
	cli.GlobalParams
	cli.JSONOutput
	Category string `flag:"category" desc:"seat category to search (required)"`
	Count    int    `flag:"count,n" default:"1" desc:"number of adjacent seats"`
}

func (a *app) searchCommand() *cli.Command {
	var params searchParams
	return &cli.Command{
		Name:    "search",
		Summary: "Ask the venue for a block of free seats",
		Description: `Ask the venue which seats it would propose for a category. Nothing is
held: the answer is only what was free when the venue replied.`,
		Usage: "boxoffice search --category CATEGORY [--count N] [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("search", &params)
		},
		Run: func(args []string) error {
			if err := checkSeatRequest(args, params.Category, params.Count); err != nil {
				return err
			}
			s, err := a.openSession(params.GlobalParams)
			if err != nil {
				return err
			}
			ctx, stop := a.context()
			defer stop()

			suggestion, err := s.venue.Search(ctx, params.Category, params.Count)
			if err != nil {
				return classify(err)
			}
			if done, err := params.EmitJSON(a.stdout, suggestion); done {
				return err
			}
			a.stdout.Printf("%s / %s: %d seats %s\n",
				suggestion.Zone, suggestion.Category, len(suggestion.Seats), formatSeats(suggestion.Seats))
			return nil
		},
	}
}

func checkSeatRequest(args []string, category string, count int) error {
	if len(args) > 0 {
		return cli.Validation("unexpected argument %q", args[0])
	}
	if strings.TrimSpace(category) == "" {
		return cli.Validation("--category is required")
	}
	if count <= 0 {
		return cli.Validation("--count must be positive, got %d", count)
	}
	return nil
}

func formatSeats(seats []schema.Coord) string {
	parts := make([]string, len(seats))
	for i, seat := range seats {
		parts[i] = seat.String()
	}
	return strings.Join(parts, " ")
}
