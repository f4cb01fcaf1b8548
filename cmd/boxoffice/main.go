// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Command boxoffice reserves and buys seats at a venue.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	"github.com/seatwise/boxoffice/cmd/boxoffice/cli"
	"github.com/seatwise/boxoffice/cmd/boxoffice/commands"
)

func main() {
	if err := run(); err != nil {
		// Commands that print their own outcome return an ExitError
		// carrying the code; there is nothing more to say.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(cli.ExitCodeFor(err))
	}
}

func run() error {
	// BOXOFFICE_* settings may live in a .env file beside the project.
	// Variables already set in the environment win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cli.Validation("loading .env: %w", err)
	}
	return commands.Root().Execute(os.Args[1:])
}
