// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package payment

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tidwall/jsonc"
	"golang.org/x/term"
)

// CollectorFunc adapts a function to Collector.
type CollectorFunc func(ctx context.Context, kind Kind, fields []Field) (Details, error)

func (f CollectorFunc) Collect(ctx context.Context, kind Kind, fields []Field) (Details, error) {
	return f(ctx, kind, fields)
}

// StaticCollector returns fixed values. It stands in for a user in
// tests and non-interactive runs.
type StaticCollector struct {
	Values    Details
	Cancelled bool
}

func (c StaticCollector) Collect(ctx context.Context, _ Kind, fields []Field) (Details, error) {
	if c.Cancelled {
		return nil, ErrCancelled
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	details := make(Details, len(fields))
	for _, field := range fields {
		if value, ok := c.Values[field.Name]; ok {
			details[field.Name] = value
		}
	}
	return details, nil
}

// FileCollector reads details from a JSONC file (comments and
// trailing commas allowed). The file is either a flat object of field
// values or an object keyed by method ("tarjeta", "paypal", "cripto")
// so one file can serve every method:
//
//	{
//	  // test card
//	  "tarjeta": {"numero_tarjeta": "4111 1111 1111 1111", "cvv": "123"},
//	  "paypal": {"correo": "fan@example.com", "contrasena": "hunter2"},
//	}
type FileCollector struct {
	Path string
}

func (c FileCollector) Collect(_ context.Context, kind Kind, fields []Field) (Details, error) {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", c.Path, err)
	}

	var document map[string]json.RawMessage
	if err := json.Unmarshal(jsonc.ToJSON(data), &document); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", c.Path, err)
	}

	values := document
	if nested, ok := document[string(kind)]; ok {
		values = nil
		if err := json.Unmarshal(nested, &values); err != nil {
			return nil, fmt.Errorf("parsing %s: %q section: %w", c.Path, kind, err)
		}
	}

	details := make(Details, len(fields))
	for _, field := range fields {
		raw, ok := values[field.Name]
		if !ok {
			continue
		}
		var value string
		if err := json.Unmarshal(raw, &value); err != nil {
			return nil, fmt.Errorf("parsing %s: field %q must be a string", c.Path, field.Name)
		}
		details[field.Name] = value
	}
	return details, nil
}

// PromptCollector asks for each field on a terminal. Secret fields
// are read without echo when Input is a terminal. End of input
// (Ctrl-D) cancels.
type PromptCollector struct {
	Input  io.Reader
	Output io.Writer
}

func (c PromptCollector) Collect(ctx context.Context, kind Kind, fields []Field) (Details, error) {
	input := c.Input
	if input == nil {
		input = os.Stdin
	}
	output := c.Output
	if output == nil {
		output = os.Stderr
	}
	terminalFd, isTerminal := terminalDescriptor(input)
	reader := bufio.NewReader(input)

	fmt.Fprintf(output, "Paying with %s (Ctrl-D to cancel)\n", kind)
	details := make(Details, len(fields))
	for _, field := range fields {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCancelled, err)
		}
		fmt.Fprintf(output, "%s: ", field.Label)

		var value string
		var err error
		if field.Secret && isTerminal {
			var secret []byte
			secret, err = term.ReadPassword(terminalFd)
			fmt.Fprintln(output)
			value = string(secret)
		} else {
			value, err = reader.ReadString('\n')
			if errors.Is(err, io.EOF) && value != "" {
				err = nil
			}
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(output)
			return nil, ErrCancelled
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", field.Name, err)
		}
		details[field.Name] = strings.TrimRight(value, "\r\n")
	}
	return details, nil
}

func terminalDescriptor(input io.Reader) (int, bool) {
	file, ok := input.(interface{ Fd() uintptr })
	if !ok {
		return 0, false
	}
	fd := int(file.Fd())
	return fd, term.IsTerminal(fd)
}
