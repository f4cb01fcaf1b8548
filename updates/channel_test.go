// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package updates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/seatwise/boxoffice/lib/clock"
	"github.com/seatwise/boxoffice/lib/schema"
	"github.com/seatwise/boxoffice/lib/testutil"
)

const wait = 5 * time.Second

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// fakeStream is a Stream fed by the test.
type fakeStream struct {
	messages chan []byte
	failures chan error
	closed   chan struct{}
}

func newFakeStream() *fakeStream {
	return &fakeStream{
		messages: make(chan []byte, 8),
		failures: make(chan error, 1),
		closed:   make(chan struct{}),
	}
}

func (s *fakeStream) Read(ctx context.Context) ([]byte, error) {
	select {
	case data := <-s.messages:
		return data, nil
	case err := <-s.failures:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *fakeStream) Close() error {
	close(s.closed)
	return nil
}

// fakeTransport answers each Dial with the next queued outcome.
type fakeTransport struct {
	outcomes chan any
	dials    chan struct{}
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{outcomes: make(chan any, 8), dials: make(chan struct{}, 8)}
}

func (f *fakeTransport) Dial(ctx context.Context, _ string) (Stream, error) {
	f.dials <- struct{}{}
	select {
	case outcome := <-f.outcomes:
		if err, ok := outcome.(error); ok {
			return nil, err
		}
		return outcome.(*fakeStream), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type resyncFunc func(ctx context.Context) (*schema.Structure, error)

func (f resyncFunc) Structure(ctx context.Context) (*schema.Structure, error) { return f(ctx) }

type delivery struct {
	snapshot *schema.Structure
	source   Source
}

func collector() (Listener, chan delivery) {
	deliveries := make(chan delivery, 16)
	return ListenerFunc(func(_ context.Context, snapshot *schema.Structure, source Source) error {
		deliveries <- delivery{snapshot: snapshot, source: source}
		return nil
	}), deliveries
}

func structureWith(state schema.SeatState) *schema.Structure {
	return &schema.Structure{Zones: []schema.Zone{{
		Name:       "A",
		Categories: map[string][][]schema.SeatCell{"VIP": {{{State: state}}}},
	}}}
}

func encode(t *testing.T, structure *schema.Structure) []byte {
	t.Helper()
	data, err := json.Marshal(structure)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	return data
}

func startChannel(t *testing.T, config Config, listener Listener) (*Channel, func()) {
	t.Helper()
	channel, err := New(config, listener)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := channel.Run(ctx); err != nil {
			t.Errorf("Run returned %v", err)
		}
	}()
	return channel, func() {
		cancel()
		testutil.RequireClosed(t, done, wait, "channel shutdown")
	}
}

func TestNewValidation(t *testing.T) {
	listener, _ := collector()
	if _, err := New(Config{}, listener); err == nil {
		t.Error("New without URL succeeded")
	}
	if _, err := New(Config{URL: "ws://venue/ws"}, nil); err == nil {
		t.Error("New without listener succeeded")
	}
}

func TestReconnectBackoffAndResync(t *testing.T) {
	fake := clock.Fake(epoch)
	transport := newFakeTransport()
	listener, deliveries := collector()
	resyncs := 0
	venueState := schema.SeatFree
	resync := resyncFunc(func(context.Context) (*schema.Structure, error) {
		resyncs++
		return structureWith(venueState), nil
	})
	disconnects := make(chan error, 4)

	channel, stop := startChannel(t, Config{
		URL:       "ws://venue/ws",
		Transport: transport,
		Resync:    resync,
		Clock:     fake,
		Hooks:     Hooks{OnDisconnect: func(err error) { disconnects <- err }},
	}, listener)
	defer stop()

	// Two failed dials: 1s then 2s backoff.
	transport.outcomes <- errors.New("connection refused")
	testutil.RequireReceive(t, transport.dials, wait, "first dial")
	fake.WaitForTimers(1)
	fake.Advance(time.Second)

	transport.outcomes <- errors.New("connection refused")
	testutil.RequireReceive(t, transport.dials, wait, "second dial")
	fake.WaitForTimers(1)
	fake.Advance(time.Second)
	testutil.RequireNoReceive(t, transport.dials, 50*time.Millisecond, "dial before the doubled backoff elapsed")
	fake.Advance(time.Second)

	stream := newFakeStream()
	transport.outcomes <- stream
	testutil.RequireReceive(t, transport.dials, wait, "third dial")

	first := testutil.RequireReceive(t, deliveries, wait, "resync after connect")
	if first.source != SourceResync {
		t.Fatalf("first delivery source = %v, want resync", first.source)
	}

	stream.messages <- encode(t, structureWith(schema.SeatPurchased))
	pushed := testutil.RequireReceive(t, deliveries, wait, "push delivery")
	if pushed.source != SourcePush {
		t.Errorf("push delivery source = %v, want push", pushed.source)
	}
	if got := pushed.snapshot.Zones[0].Categories["VIP"][0][0].State; got != schema.SeatPurchased {
		t.Errorf("pushed state = %q, want %q", got, schema.SeatPurchased)
	}

	// Losing an established connection resets the backoff to 1s. The
	// seat is sold while the stream is down.
	stream.failures <- errors.New("connection reset")
	testutil.RequireReceive(t, disconnects, wait, "disconnect hook")
	testutil.RequireClosed(t, stream.closed, wait, "stream closed after failure")
	fake.WaitForTimers(1)
	venueState = schema.SeatPurchased
	second := newFakeStream()
	transport.outcomes <- second
	fake.Advance(time.Second)
	testutil.RequireReceive(t, transport.dials, wait, "reconnect dial")

	// The reconnect came 1s after the last resync, inside the 2s
	// resync interval, so the resync waits out the remaining second.
	fake.WaitForTimers(1)
	testutil.RequireNoReceive(t, deliveries, 50*time.Millisecond, "resync before the interval elapsed")
	fake.Advance(time.Second)
	resynced := testutil.RequireReceive(t, deliveries, wait, "delayed resync after reconnect")
	if resynced.source != SourceResync {
		t.Fatalf("delivery after reconnect = %v, want resync", resynced.source)
	}
	if got := resynced.snapshot.Zones[0].Categories["VIP"][0][0].State; got != schema.SeatPurchased {
		t.Errorf("resynced state = %q, want the sale made during the outage (%q)", got, schema.SeatPurchased)
	}

	second.messages <- encode(t, structureWith(schema.SeatReserved))
	after := testutil.RequireReceive(t, deliveries, wait, "push after reconnect")
	if after.source != SourcePush {
		t.Errorf("delivery after resync = %v, want push", after.source)
	}

	stats := channel.Stats()
	if stats.Connects != 2 || stats.Resyncs != 2 || resyncs != 2 {
		t.Errorf("stats = %+v (resync calls %d), want 2 connects and 2 resyncs", stats, resyncs)
	}
}

func TestDuplicateAndMalformedPushes(t *testing.T) {
	transport := newFakeTransport()
	listener, deliveries := collector()
	errorsSeen := make(chan error, 4)

	stream := newFakeStream()
	transport.outcomes <- stream
	channel, stop := startChannel(t, Config{
		URL:       "ws://venue/ws",
		Transport: transport,
		Clock:     clock.Fake(epoch),
		Hooks:     Hooks{OnError: func(err error) { errorsSeen <- err }},
	}, listener)
	defer stop()

	payload := encode(t, structureWith(schema.SeatFree))
	stream.messages <- payload
	stream.messages <- payload
	stream.messages <- []byte(`{"zonas":[{"nombre":"A"}]}`)
	stream.messages <- []byte(`not json`)
	stream.messages <- encode(t, structureWith(schema.SeatPurchased))

	testutil.RequireReceive(t, deliveries, wait, "first payload")
	last := testutil.RequireReceive(t, deliveries, wait, "payload after malformed ones")
	if got := last.snapshot.Zones[0].Categories["VIP"][0][0].State; got != schema.SeatPurchased {
		t.Errorf("delivered state = %q, want %q", got, schema.SeatPurchased)
	}
	for range 2 {
		testutil.RequireReceive(t, errorsSeen, wait, "malformed payload reported")
	}

	stats := channel.Stats()
	if stats.Messages != 5 || stats.Duplicates != 1 || stats.Malformed != 2 {
		t.Errorf("stats = %+v, want 5 messages, 1 duplicate, 2 malformed", stats)
	}
}

func TestListenerErrorsDoNotStopChannel(t *testing.T) {
	transport := newFakeTransport()
	stream := newFakeStream()
	transport.outcomes <- stream

	calls := make(chan struct{}, 4)
	listener := ListenerFunc(func(context.Context, *schema.Structure, Source) error {
		calls <- struct{}{}
		return fmt.Errorf("cache rejected snapshot")
	})
	_, stop := startChannel(t, Config{URL: "ws://venue/ws", Transport: transport, Clock: clock.Fake(epoch)}, listener)
	defer stop()

	stream.messages <- encode(t, structureWith(schema.SeatFree))
	stream.messages <- encode(t, structureWith(schema.SeatReserved))
	testutil.RequireReceive(t, calls, wait, "first delivery")
	testutil.RequireReceive(t, calls, wait, "second delivery after listener error")
}
