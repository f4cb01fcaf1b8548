// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package schema defines the venue protocol: the JSON bodies exchanged
// with the venue's HTTP endpoints and the structure snapshots pushed
// over the update channel. Field names follow the wire exactly
// (zonas, nombre, categorias, estado, reserva_id, ...).
//
// [Structure] is the full seat map, sent both as the response to the
// structure endpoint and as every push message. [SeatState] is the
// closed set of seat states; [SeatSuggested] is the one state that
// exists only on the client and is rejected when it appears on the
// wire.
//
// This package depends on no other boxoffice packages.
package schema
