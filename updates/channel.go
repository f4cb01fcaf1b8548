// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package updates

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/zeebo/blake3"
	"golang.org/x/time/rate"

	"github.com/seatwise/boxoffice/lib/clock"
	"github.com/seatwise/boxoffice/lib/schema"
	"github.com/seatwise/boxoffice/lib/seatmap"
)

// Source tells a Listener how a snapshot arrived.
type Source int

const (
	// SourcePush is a message the venue pushed.
	SourcePush Source = iota
	// SourceResync is a structure fetched after a (re)connect.
	SourceResync
)

func (s Source) String() string {
	if s == SourceResync {
		return "resync"
	}
	return "push"
}

// Listener receives every decoded snapshot. Calls are sequential. A
// returned error is logged and reported through Hooks.OnError; the
// channel keeps listening.
type Listener interface {
	HandleSnapshot(ctx context.Context, snapshot *schema.Structure, source Source) error
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ctx context.Context, snapshot *schema.Structure, source Source) error

func (f ListenerFunc) HandleSnapshot(ctx context.Context, snapshot *schema.Structure, source Source) error {
	return f(ctx, snapshot, source)
}

// Resyncer fetches the full structure. *venue.Client satisfies it.
// If the value also has a CloseIdleConnections method, it is called
// before every resync that follows a reconnect.
type Resyncer interface {
	Structure(ctx context.Context) (*schema.Structure, error)
}

// Hooks observe the connection lifecycle. Nil hooks are skipped.
// Hooks run on the channel's goroutine and must not block.
type Hooks struct {
	OnConnect    func()
	OnDisconnect func(err error)
	OnError      func(err error)
}

// Config configures a Channel.
type Config struct {
	// URL is the push endpoint, e.g. "ws://127.0.0.1:8080/ws".
	URL string

	// Transport opens subscriptions. Default: WebsocketTransport{}.
	Transport Transport

	// Resync, if set, is called after every successful connect.
	Resync Resyncer

	// ResyncInterval is the minimum spacing between resyncs.
	// Default: 2 seconds.
	ResyncInterval time.Duration

	// InitialBackoff is the first reconnect delay. Default: 1 second.
	InitialBackoff time.Duration

	// MaxBackoff caps the doubling reconnect delay. Default: 30 seconds.
	MaxBackoff time.Duration

	Hooks Hooks

	// Clock drives reconnect delays and resync throttling. If nil,
	// clock.Real() is used.
	Clock clock.Clock

	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Stats are cumulative channel counters.
type Stats struct {
	Connects   int64
	Messages   int64
	Duplicates int64
	Malformed  int64
	Resyncs    int64
}

// Channel is a reconnecting push subscription. Create with New and
// start with Run.
type Channel struct {
	config   Config
	listener Listener
	clock    clock.Clock
	logger   *slog.Logger
	limiter  *rate.Limiter

	lastDigest [32]byte
	haveDigest bool

	connects   atomic.Int64
	messages   atomic.Int64
	duplicates atomic.Int64
	malformed  atomic.Int64
	resyncs    atomic.Int64
}

// New creates a Channel delivering to listener.
func New(config Config, listener Listener) (*Channel, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("updates: URL is required")
	}
	if listener == nil {
		return nil, fmt.Errorf("updates: listener is required")
	}
	if config.Transport == nil {
		config.Transport = WebsocketTransport{}
	}
	if config.ResyncInterval <= 0 {
		config.ResyncInterval = 2 * time.Second
	}
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = time.Second
	}
	if config.MaxBackoff <= 0 {
		config.MaxBackoff = 30 * time.Second
	}
	if config.MaxBackoff < config.InitialBackoff {
		config.MaxBackoff = config.InitialBackoff
	}

	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Channel{
		config:   config,
		listener: listener,
		clock:    clk,
		logger:   logger.With("push_url", config.URL),
		limiter:  rate.NewLimiter(rate.Every(config.ResyncInterval), 1),
	}, nil
}

// Stats returns the current counters.
func (c *Channel) Stats() Stats {
	return Stats{
		Connects:   c.connects.Load(),
		Messages:   c.messages.Load(),
		Duplicates: c.duplicates.Load(),
		Malformed:  c.malformed.Load(),
		Resyncs:    c.resyncs.Load(),
	}
}

// Run connects and delivers snapshots until ctx is cancelled, then
// returns nil. Connection failures never end Run; they are retried
// with exponential backoff that resets after every successful
// connect.
func (c *Channel) Run(ctx context.Context) error {
	backoff := c.config.InitialBackoff
	for {
		if ctx.Err() != nil {
			return nil
		}

		connected, err := c.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if connected {
			backoff = c.config.InitialBackoff
		}

		c.logger.Warn("update channel lost, reconnecting", "error", err, "backoff", backoff)
		select {
		case <-ctx.Done():
			return nil
		case <-c.clock.After(backoff):
		}
		backoff *= 2
		if backoff > c.config.MaxBackoff {
			backoff = c.config.MaxBackoff
		}
	}
}

// session runs one connection from dial to failure. connected reports
// whether the dial succeeded.
func (c *Channel) session(ctx context.Context) (connected bool, err error) {
	stream, err := c.config.Transport.Dial(ctx, c.config.URL)
	if err != nil {
		err = fmt.Errorf("updates: connecting: %w", err)
		c.reportError(err)
		return false, err
	}
	defer stream.Close()

	reconnect := c.connects.Add(1) > 1
	c.haveDigest = false
	c.logger.Info("update channel connected", "reconnect", reconnect)
	if c.config.Hooks.OnConnect != nil {
		c.config.Hooks.OnConnect()
	}

	c.resync(ctx, reconnect)

	for {
		data, err := stream.Read(ctx)
		if err != nil {
			err = fmt.Errorf("updates: reading: %w", err)
			if ctx.Err() == nil && c.config.Hooks.OnDisconnect != nil {
				c.config.Hooks.OnDisconnect(err)
			}
			return true, err
		}
		c.receive(ctx, data)
	}
}

// receive dedupes, decodes, and delivers one pushed message.
func (c *Channel) receive(ctx context.Context, data []byte) {
	c.messages.Add(1)

	digest := blake3.Sum256(data)
	if c.haveDigest && digest == c.lastDigest {
		c.duplicates.Add(1)
		c.logger.Debug("skipping duplicate push")
		return
	}

	snapshot, err := schema.DecodeStructure(data)
	if err != nil {
		c.malformed.Add(1)
		c.reportError(fmt.Errorf("updates: %w", err))
		return
	}
	c.lastDigest = digest
	c.haveDigest = true

	c.deliver(ctx, snapshot, SourcePush)
}

// resync fetches and delivers the full structure. A resync refused by
// the rate limit waits on the clock for its turn; it is never dropped.
func (c *Channel) resync(ctx context.Context, reconnect bool) {
	if c.config.Resync == nil {
		return
	}
	now := c.clock.Now()
	reservation := c.limiter.ReserveN(now, 1)
	if delay := reservation.DelayFrom(now); delay > 0 {
		c.logger.Info("delaying resync, rate limited", "delay", delay)
		select {
		case <-ctx.Done():
			reservation.CancelAt(c.clock.Now())
			return
		case <-c.clock.After(delay):
		}
	}
	if reconnect {
		if closer, ok := c.config.Resync.(interface{ CloseIdleConnections() }); ok {
			closer.CloseIdleConnections()
		}
	}

	snapshot, err := c.config.Resync.Structure(ctx)
	if err != nil {
		if ctx.Err() == nil {
			c.reportError(fmt.Errorf("updates: resync: %w", err))
		}
		return
	}
	c.resyncs.Add(1)
	c.deliver(ctx, snapshot, SourceResync)
}

func (c *Channel) deliver(ctx context.Context, snapshot *schema.Structure, source Source) {
	if err := c.listener.HandleSnapshot(ctx, snapshot, source); err != nil {
		if errors.Is(err, seatmap.ErrMalformedSnapshot) {
			c.malformed.Add(1)
		}
		c.reportError(fmt.Errorf("updates: %s snapshot rejected: %w", source, err))
	}
}

func (c *Channel) reportError(err error) {
	c.logger.Error("update channel error", "error", err)
	if c.config.Hooks.OnError != nil {
		c.config.Hooks.OnError(err)
	}
}
