// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/seatwise/boxoffice/cmd/boxoffice/cli"
	"github.com/seatwise/boxoffice/lib/schema"
	"github.com/seatwise/boxoffice/lib/seatmap"
	"github.com/seatwise/boxoffice/lib/snaplog"
	"github.com/seatwise/boxoffice/updates"
)

type watchParams struct {
	cli.GlobalParams
	Record      string `flag:"record,r" desc:"append every received snapshot to this recording"`
	Compression string `flag:"compression" default:"zstd" desc:"recording compression: zstd or lz4"`
	Limit       int    `flag:"limit" desc:"stop after this many snapshots (0: run until interrupted)"`
}

func (a *app) watchCommand() *cli.Command {
	var params watchParams
	return &cli.Command{
		Name:    "watch",
		Summary: "Follow the venue's seat map as it changes",
		Description: `Subscribe to the venue's push channel and print every seat whose state
changes. The channel reconnects with backoff and resyncs the full seat
map after each reconnect.

With --record, every snapshot is stored for 'boxoffice replay'.`,
		Examples: []cli.Example{
			{
				Description: "Record an evening's sales with LZ4 compression",
				Command:     "boxoffice watch --record evening.snap --compression lz4",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("watch", &params)
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument %q", args[0])
			}
			if params.Limit < 0 {
				return cli.Validation("--limit must not be negative, got %d", params.Limit)
			}
			compression, err := snaplog.ParseCompression(params.Compression)
			if err != nil {
				return cli.Validation("%w", err)
			}
			s, err := a.openSession(params.GlobalParams)
			if err != nil {
				return err
			}
			return a.watch(s, params, compression)
		},
	}
}

func (a *app) watch(s *session, params watchParams, compression snaplog.Compression) (err error) {
	ctx, stop := a.context()
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var recorder *snaplog.Recorder
	if params.Record != "" {
		recorder, err = snaplog.Create(params.Record, compression)
		if err != nil {
			return cli.Internal("%w", err)
		}
		defer func() {
			if closeErr := recorder.Close(); closeErr != nil && err == nil {
				err = cli.Internal("%w", closeErr)
			}
			a.stderr.Printf("Recorded %d snapshots to %s\n", recorder.Count(), params.Record)
		}()
	}

	cache := seatmap.New()
	unsubscribe := cache.Subscribe(a.printChanges)
	defer unsubscribe()

	received := 0
	listener := updates.ListenerFunc(func(_ context.Context, snapshot *schema.Structure, source updates.Source) error {
		if recorder != nil {
			record := snaplog.Record{ReceivedAt: time.Now(), Source: source.String(), Snapshot: *snapshot}
			if err := recorder.Record(record); err != nil {
				s.logger.Error("recording snapshot failed", "error", err)
			}
		}
		received++
		if params.Limit > 0 && received >= params.Limit {
			defer cancel()
		}

		if !cache.Loaded() {
			if err := cache.Load(snapshot); err != nil {
				return err
			}
			a.stdout.Printf("Seat map loaded from %s: %s\n", source, describe(cache.Summary()))
			return nil
		}
		result, err := cache.ApplyDelta(snapshot)
		if err != nil {
			return err
		}
		if result.Unknown > 0 {
			s.logger.Warn("snapshot addressed unknown seats", "unknown", result.Unknown, "source", source)
		}
		return nil
	})

	channel, err := s.channel(listener)
	if err != nil {
		return err
	}
	if err := channel.Run(ctx); err != nil {
		return classify(err)
	}

	stats := channel.Stats()
	s.logger.Info("update channel stopped",
		"connects", stats.Connects,
		"messages", stats.Messages,
		"duplicates", stats.Duplicates,
		"malformed", stats.Malformed,
		"resyncs", stats.Resyncs,
	)
	return nil
}

// describe condenses a summary to "N seats in M categories, F free".
func describe(summary []seatmap.CategorySummary) string {
	total, free := 0, 0
	for _, category := range summary {
		total += category.Total
		free += category.ByState[schema.SeatFree]
	}
	return fmt.Sprintf("%d seats in %d categories, %d free", total, len(summary), free)
}
