// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/seatwise/boxoffice/cmd/boxoffice/cli"
	"github.com/seatwise/boxoffice/lib/config"
	"github.com/seatwise/boxoffice/lib/journal"
	"github.com/seatwise/boxoffice/lib/seatmap"
	"github.com/seatwise/boxoffice/reservation"
	"github.com/seatwise/boxoffice/updates"
	"github.com/seatwise/boxoffice/venue"
)

// session is the configuration and venue client shared by the
// commands that talk to the venue.
type session struct {
	config *config.Config
	logger *slog.Logger
	venue  *venue.Client
}

func (a *app) openSession(global cli.GlobalParams) (*session, error) {
	logger := a.newLogger(global.Verbose)

	var cfg *config.Config
	var err error
	if global.ConfigPath != "" {
		cfg, err = config.LoadFile(global.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, cli.Validation("%w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, cli.Validation("invalid configuration:\n%w", err)
	}

	client, err := venue.NewClient(venue.ClientConfig{
		BaseURL:    cfg.Venue.BaseURL,
		Paths:      cfg.Venue.Paths,
		HTTPClient: &http.Client{Timeout: cfg.Venue.RequestTimeout},
		Logger:     logger,
	})
	if err != nil {
		return nil, cli.Validation("%w", err)
	}

	logger.Debug("session opened", "venue", cfg.Venue.BaseURL, "journal", cfg.Reservation.Journal)
	return &session{config: cfg, logger: logger, venue: client}, nil
}

// lockJournal keeps other boxoffice processes off the hold journal
// until release is called. Without a journal there is nothing to lock.
func (s *session) lockJournal() (release func(), err error) {
	path := s.config.Reservation.Journal
	if path == "" {
		return func() {}, nil
	}
	if err := s.config.EnsureJournalDir(); err != nil {
		return nil, cli.Internal("hold journal: %w", err)
	}
	lock, err := journal.Acquire(path)
	if errors.Is(err, journal.ErrLocked) {
		return nil, cli.Conflict("%w", err).
			WithHint("Another boxoffice process is buying with " + path + ". Wait for it to finish.")
	}
	if err != nil {
		return nil, cli.Internal("%w", err)
	}
	return func() {
		if err := lock.Release(); err != nil {
			s.logger.Warn("releasing journal lock failed", "error", err)
		}
	}, nil
}

// controller creates a reservation controller over a fresh seat map.
func (s *session) controller(onEvent func(reservation.Event)) (*reservation.Controller, error) {
	if err := s.config.EnsureJournalDir(); err != nil {
		return nil, cli.Internal("hold journal: %w", err)
	}
	controller, err := reservation.New(reservation.Config{
		Venue:       s.venue,
		Cache:       seatmap.New(),
		HoldTTL:     s.config.Reservation.HoldTTL,
		JournalPath: s.config.Reservation.Journal,
		OnEvent:     onEvent,
		Logger:      s.logger,
	})
	if err != nil {
		return nil, cli.Internal("%w", err)
	}
	return controller, nil
}

// channel creates an update channel delivering to listener. Every
// (re)connect resyncs through the venue client.
func (s *session) channel(listener updates.Listener) (*updates.Channel, error) {
	pushURL, err := s.config.PushURL()
	if err != nil {
		return nil, cli.Validation("%w", err)
	}
	channel, err := updates.New(updates.Config{
		URL:            pushURL,
		Transport:      updates.WebsocketTransport{ReadLimit: s.config.Updates.MaxMessageBytes},
		Resync:         s.venue,
		ResyncInterval: s.config.Updates.ResyncInterval,
		MaxBackoff:     s.config.Updates.MaxBackoff,
		Logger:         s.logger,
	}, listener)
	if err != nil {
		return nil, cli.Internal("%w", err)
	}
	return channel, nil
}
