// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the boxoffice command tree.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/seatwise/boxoffice/cmd/boxoffice/cli"
	"github.com/seatwise/boxoffice/lib/version"
)

// app carries the process streams so tests can run commands against
// buffers.
type app struct {
	stdin     io.Reader
	stdout    *console
	stderr    *console
	newLogger func(verbose bool) *slog.Logger

	// parent is the root of every command context. Interrupts cancel
	// the contexts derived from it.
	parent context.Context
}

// Root returns the complete boxoffice command tree.
func Root() *cli.Command {
	return newRoot(&app{
		stdin:     os.Stdin,
		stdout:    newConsole(os.Stdout),
		stderr:    newConsole(os.Stderr),
		newLogger: cli.NewCommandLogger,
		parent:    context.Background(),
	})
}

func newRoot(a *app) *cli.Command {
	return &cli.Command{
		Name: "boxoffice",
		Description: `boxoffice: reserve and buy seats at a venue.

Browse the seat map, search for a block of free seats, hold it for a
few minutes, and pay with a card, PayPal, or crypto. Seat changes made
by other buyers arrive over the venue's push channel while you decide.`,
		Output: a.stderr,
		Subcommands: []*cli.Command{
			a.structureCommand(),
			a.searchCommand(),
			a.buyCommand(),
			a.watchCommand(),
			a.replayCommand(),
			a.recoverCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(args []string) error {
					a.stdout.Printf("boxoffice %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "See how full each category is",
				Command:     "boxoffice structure",
			},
			{
				Description: "Buy two VIP seats, reading card details from a file",
				Command:     "boxoffice buy --category VIP --count 2 --method card --details card.jsonc",
			},
			{
				Description: "Record the push channel for later replay",
				Command:     "boxoffice watch --record evening.snap",
			},
			{
				Description: "Release a hold left behind by a crashed run",
				Command:     "boxoffice recover",
			},
		},
	}
}

// context returns a context cancelled on SIGINT or SIGTERM.
func (a *app) context() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(a.parent, os.Interrupt, syscall.SIGTERM)
}

// console serializes writes from the command goroutine, timer
// callbacks, and the update channel.
type console struct {
	mu sync.Mutex
	w  io.Writer
}

func newConsole(w io.Writer) *console {
	return &console{w: w}
}

func (c *console) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.w.Write(p)
}

func (c *console) Printf(format string, args ...any) {
	fmt.Fprintf(c, format, args...)
}
