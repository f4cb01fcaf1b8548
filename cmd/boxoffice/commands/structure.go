// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/seatwise/boxoffice/cmd/boxoffice/cli"
	"github.com/seatwise/boxoffice/lib/schema"
	"github.com/seatwise/boxoffice/lib/seatmap"
)

type structureParams struct {
	cli.GlobalParams
	cli.JSONOutput
}

func (a *app) structureCommand() *cli.Command {
	var params structureParams
	return &cli.Command{
		Name:    "structure",
		Summary: "Summarize the venue's seat map",
		Description: `Fetch the venue's seat map and print, for every zone and category,
how many seats are free, temporarily held, reserved, and sold.`,
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("structure", &params)
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

			structure, err := s.venue.Structure(ctx)
			if err != nil {
				return classify(err)
			}
			cache := seatmap.New()
			if err := cache.Load(structure); err != nil {
				return classify(err)
			}
			summary := cache.Summary()

			if done, err := params.EmitJSON(a.stdout, summary); done {
				return err
			}
			writeSummary(a.stdout, summary)
			return nil
		},
	}
}

func writeSummary(out *console, summary []seatmap.CategorySummary) {
	tw := tabwriter.NewWriter(out, 2, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ZONE\tCATEGORY\tSEATS\tFREE\tHELD\tRESERVED\tSOLD\tOCCUPANCY")
	for _, category := range summary {
		reserved := category.ByState[schema.SeatReserved] + category.ByState[schema.SeatReservedByUser]
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%.0f%%\n",
			category.Zone,
			category.Category,
			category.Total,
			category.ByState[schema.SeatFree],
			category.ByState[schema.SeatTemporarilyHeld],
			reserved,
			category.ByState[schema.SeatPurchased],
			category.Occupancy*100,
		)
	}
	tw.Flush()
}
