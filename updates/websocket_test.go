// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package updates_test

import (
	"context"
	"testing"
	"time"

	"github.com/seatwise/boxoffice/lib/schema"
	"github.com/seatwise/boxoffice/lib/testutil"
	"github.com/seatwise/boxoffice/updates"
	"github.com/seatwise/boxoffice/venue"
	"github.com/seatwise/boxoffice/venue/venuetest"
)

func TestWebsocketSubscription(t *testing.T) {
	const wait = 10 * time.Second
	server := venuetest.New(t, venuetest.Grid("A", "VIP", 1, 2, schema.SeatFree))
	client, err := venue.NewClient(venue.ClientConfig{BaseURL: server.URL()})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	type delivery struct {
		state  schema.SeatState
		source updates.Source
	}
	deliveries := make(chan delivery, 16)
	listener := updates.ListenerFunc(func(_ context.Context, snapshot *schema.Structure, source updates.Source) error {
		deliveries <- delivery{state: snapshot.Zones[0].Categories["VIP"][0][1].State, source: source}
		return nil
	})

	channel, err := updates.New(updates.Config{
		URL:            server.PushURL(),
		Resync:         client,
		ResyncInterval: time.Millisecond,
		InitialBackoff: 10 * time.Millisecond,
	}, listener)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		channel.Run(ctx)
	}()
	defer func() {
		cancel()
		testutil.RequireClosed(t, done, wait, "channel shutdown")
	}()

	testutil.RequireReceive(t, server.Subscribed(), wait, "subscription accepted")
	if got := testutil.RequireReceive(t, deliveries, wait, "initial resync"); got.source != updates.SourceResync {
		t.Fatalf("first delivery = %+v, want resync", got)
	}

	server.SetSeat("A", "VIP", 0, 1, schema.SeatPurchased)
	pushed := testutil.RequireReceive(t, deliveries, wait, "push after another client's purchase")
	if pushed.source != updates.SourcePush || pushed.state != schema.SeatPurchased {
		t.Fatalf("push = %+v, want purchased seat via push", pushed)
	}

	// A venue restart drops the subscription; the channel reconnects
	// and resyncs the state it may have missed.
	server.DropSubscribers()
	testutil.RequireReceive(t, server.Subscribed(), wait, "resubscription")
	resynced := testutil.RequireReceive(t, deliveries, wait, "resync after reconnect")
	if resynced.source != updates.SourceResync || resynced.state != schema.SeatPurchased {
		t.Errorf("resync = %+v, want purchased seat via resync", resynced)
	}
	if stats := channel.Stats(); stats.Connects < 2 {
		t.Errorf("Connects = %d, want at least 2", stats.Connects)
	}
}
