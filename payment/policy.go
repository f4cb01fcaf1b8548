// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package payment

import (
	"fmt"
	"strings"
)

// Policy decides which fields must be filled in. Values are compared
// after trimming whitespace.
type Policy int

const (
	// RequireAll rejects input unless every field is non-empty.
	RequireAll Policy = iota
	// RequireAny accepts input with at least one non-empty field.
	RequireAny
)

// ParsePolicy accepts "require-all" or "require-any". Empty means
// RequireAll.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "require-all":
		return RequireAll, nil
	case "require-any":
		return RequireAny, nil
	}
	return RequireAll, fmt.Errorf("payment: unknown validation policy %q (want require-all or require-any)", s)
}

func (p Policy) String() string {
	if p == RequireAny {
		return "require-any"
	}
	return "require-all"
}

func (p Policy) check(kind Kind, fields []Field, details Details) error {
	var missing []string
	for _, field := range fields {
		if strings.TrimSpace(details[field.Name]) == "" {
			missing = append(missing, field.Name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	if p == RequireAny && len(missing) < len(fields) {
		return nil
	}
	return &InvalidInputError{Kind: kind, Missing: missing}
}
