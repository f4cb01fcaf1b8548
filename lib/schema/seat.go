// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"encoding/json"
	"fmt"
)

// SeatState is the state of a single seat. The string values of the
// server states are the wire values of the "estado" field.
type SeatState string

const (
	SeatFree            SeatState = "Libre"
	SeatReserved        SeatState = "Reservado"
	SeatReservedByUser  SeatState = "ReservadoPorUsuario"
	SeatPurchased       SeatState = "Comprado"
	SeatTemporarilyHeld SeatState = "ReservadoTemporalmente"

	// SeatSuggested marks seats a search proposed to this client. It
	// never comes from the server.
	SeatSuggested SeatState = "Sugerido"
)

// IsServerState reports whether s is a state the server may send.
func (s SeatState) IsServerState() bool {
	switch s {
	case SeatFree, SeatReserved, SeatReservedByUser, SeatPurchased, SeatTemporarilyHeld:
		return true
	}
	return false
}

// Coord addresses a seat inside a category grid. On the wire it is a
// two-element array [fila, columna].
type Coord struct {
	Row    int
	Column int
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Column)
}

// MarshalJSON encodes the coordinate as [row, column].
func (c Coord) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{c.Row, c.Column})
}

// UnmarshalJSON decodes a [row, column] pair. Anything other than an
// array of exactly two non-negative integers is rejected.
func (c *Coord) UnmarshalJSON(data []byte) error {
	var pair []int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("seat coordinate: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("seat coordinate: want [fila, columna], got %d elements", len(pair))
	}
	if pair[0] < 0 || pair[1] < 0 {
		return fmt.Errorf("seat coordinate: negative index in %v", pair)
	}
	c.Row, c.Column = pair[0], pair[1]
	return nil
}
