// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package updates maintains the client's push subscription to the
// venue. The venue broadcasts its full seat structure after every
// mutation; a [Channel] decodes each message and forwards it to a
// single [Listener], normally the reservation controller, which
// applies it to the seat cache.
//
// A dropped connection is retried with exponential backoff on the
// injected clock. After every successful connect the channel fetches
// the full structure through its Resyncer and delivers it like a push,
// so changes missed while disconnected are not lost. Resync fetches
// are rate limited: a resync that comes too soon waits for its turn
// on the clock instead of being skipped.
//
// Delivery is at-least-once and may be reordered across a reconnect.
// Consecutive byte-identical messages are dropped before decoding.
package updates
