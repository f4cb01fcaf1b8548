// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"errors"
	"io"
	"time"

	"github.com/spf13/pflag"

	"github.com/seatwise/boxoffice/cmd/boxoffice/cli"
	"github.com/seatwise/boxoffice/lib/schema"
	"github.com/seatwise/boxoffice/lib/seatmap"
	"github.com/seatwise/boxoffice/lib/snaplog"
)

type replayParams struct {
	cli.GlobalParams
	cli.JSONOutput
}

// replayStep is one recorded snapshot and the seat changes it caused.
type replayStep struct {
	Index      int          `json:"index"`
	ReceivedAt time.Time    `json:"received_at"`
	Source     string       `json:"source"`
	Changes    []seatChange `json:"changes"`
	Unknown    int          `json:"unknown,omitempty"`
	Error      string       `json:"error,omitempty"`
	Seats      int          `json:"seats,omitempty"`
	Free       int          `json:"free,omitempty"`

	// summary is set for the snapshot that loaded the map.
	summary []seatmap.CategorySummary
}

type seatChange struct {
	Seat string           `json:"seat"`
	From schema.SeatState `json:"from"`
	To   schema.SeatState `json:"to"`
}

func (a *app) replayCommand() *cli.Command {
	var params replayParams
	return &cli.Command{
		Name:    "replay",
		Summary: "Replay a recording made by watch --record",
		Description: `Feed a recording through a fresh seat map and print the seat changes
each snapshot produced. The first snapshot loads the map; every later
one is applied as a delta, exactly as the live channel does.`,
		Usage: "boxoffice replay FILE [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("replay", &params)
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return cli.Validation("expected exactly one recording file, got %d arguments", len(args))
			}
			steps, err := replay(args[0])
			if err != nil {
				return err
			}
			if done, err := params.EmitJSON(a.stdout, steps); done {
				return err
			}
			for _, step := range steps {
				a.printStep(step)
			}
			return nil
		},
	}
}

func replay(path string) ([]replayStep, error) {
	reader, err := snaplog.Open(path)
	if err != nil {
		if errors.Is(err, snaplog.ErrBadHeader) {
			return nil, cli.Validation("%s: %w", path, err)
		}
		return nil, cli.NotFound("%w", err)
	}
	defer reader.Close()

	cache := seatmap.New()
	var pending []seatChange
	unsubscribe := cache.Subscribe(func(changes []seatmap.Change) {
		for _, change := range changes {
			if change.From == "" {
				continue
			}
			pending = append(pending, seatChange{Seat: change.Key.String(), From: change.From, To: change.To})
		}
	})
	defer unsubscribe()

	var steps []replayStep
	for index := 0; ; index++ {
		record, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return steps, nil
		}
		if err != nil {
			return steps, cli.Internal("%s: record %d: %w", path, index, err)
		}

		pending = nil
		step := replayStep{Index: index, ReceivedAt: record.ReceivedAt, Source: record.Source}
		if !cache.Loaded() {
			err = cache.Load(&record.Snapshot)
			step.summary = cache.Summary()
			for _, category := range step.summary {
				step.Seats += category.Total
				step.Free += category.ByState[schema.SeatFree]
			}
		} else {
			var result seatmap.DeltaResult
			result, err = cache.ApplyDelta(&record.Snapshot)
			step.Unknown = result.Unknown
		}
		if err != nil {
			step.Error = err.Error()
		}
		step.Changes = append([]seatChange{}, pending...)
		steps = append(steps, step)
	}
}

func (a *app) printStep(step replayStep) {
	stamp := step.ReceivedAt.Local().Format(time.TimeOnly)
	switch {
	case step.Error != "":
		a.stdout.Printf("#%d %s %s: rejected: %s\n", step.Index, stamp, step.Source, step.Error)
	case step.summary != nil:
		a.stdout.Printf("#%d %s %s: loaded %s\n", step.Index, stamp, step.Source, describe(step.summary))
	default:
		a.stdout.Printf("#%d %s %s: %d changes\n", step.Index, stamp, step.Source, len(step.Changes))
		for _, change := range step.Changes {
			a.stdout.Printf("  %s %s -> %s\n", change.Seat, change.From, change.To)
		}
	}
	if step.Unknown > 0 {
		a.stdout.Printf("  %d cells addressed unknown seats\n", step.Unknown)
	}
}
