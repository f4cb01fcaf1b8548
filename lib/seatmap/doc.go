// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package seatmap is the client's cached view of the venue seat map.
//
// A [Cache] is built from a full structure with Load and then patched
// by ApplyDelta as push messages arrive. Seats are never added or
// removed after Load; deltas only change seat states in place, so a
// local Suggested highlight survives any delta that does not report a
// new server state for that seat.
//
// Each seat remembers two states: the state the server last reported
// and the state presented to observers. They differ only while a seat
// is highlighted as Suggested. A delta that reports a changed server
// state overwrites both, which is how server truth overrules a local
// highlight.
//
// All mutations are serialized by the cache's lock. Observers
// registered with Subscribe receive every batch of changes in mutation
// order, on the goroutine that made the change, after the lock is
// released. Observers may read the cache but must not mutate it.
package seatmap
