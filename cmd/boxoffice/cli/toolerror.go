// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ErrorCategory classifies command failures so scripts can branch on
// the exit code instead of parsing messages.
type ErrorCategory string

const (
	// CategoryValidation: bad flags or arguments. Fix the input.
	CategoryValidation ErrorCategory = "validation"

	// CategoryNotFound: nothing to act on, such as no free seats in a
	// category or no journaled hold.
	CategoryNotFound ErrorCategory = "not_found"

	// CategoryConflict: the venue or the local state machine refused
	// the operation, such as a hold on seats someone else took.
	CategoryConflict ErrorCategory = "conflict"

	// CategoryTransient: the venue was unreachable or answered with an
	// unexpected status. Retrying may succeed.
	CategoryTransient ErrorCategory = "transient"

	// CategoryInternal: anything else.
	CategoryInternal ErrorCategory = "internal"
)

// ToolError is a categorized command error. It wraps the underlying
// error so errors.Is and errors.As still see the cause.
type ToolError struct {
	Category ErrorCategory
	Err      error

	// Hint, if set, is printed after the message on its own paragraph.
	Hint string
}

func (e *ToolError) Error() string {
	if e.Hint == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + "\n\n" + e.Hint
}

func (e *ToolError) Unwrap() error { return e.Err }

// WithHint sets the hint and returns e.
func (e *ToolError) WithHint(hint string) *ToolError {
	e.Hint = hint
	return e
}

// Validation creates a validation error.
func Validation(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryValidation, Err: fmt.Errorf(format, args...)}
}

// NotFound creates a not-found error.
func NotFound(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryNotFound, Err: fmt.Errorf(format, args...)}
}

// Conflict creates a conflict error.
func Conflict(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryConflict, Err: fmt.Errorf(format, args...)}
}

// Transient creates a transient error.
func Transient(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryTransient, Err: fmt.Errorf(format, args...)}
}

// Internal creates an internal error.
func Internal(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryInternal, Err: fmt.Errorf(format, args...)}
}
