// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build information for the boxoffice binary.
//
// Values are injected at build time:
//
//	go build -ldflags "-X github.com/seatwise/boxoffice/lib/version.GitCommit=$(git rev-parse --short HEAD)" ./cmd/boxoffice
package version
