// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for boxoffice packages.
//
// [RequireReceive], [RequireNoReceive], and [RequireClosed] wrap the
// select-with-timeout pattern so tests never block forever on a
// channel and never call time.After themselves. Time-dependent
// production code runs on lib/clock's fake clock in tests.
//
// [WriteFile] drops a fixture file into the test's temporary
// directory.
//
// All helpers call t.Fatalf on failure rather than returning errors.
package testutil
