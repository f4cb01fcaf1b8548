// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package schema

// SearchRequest asks the venue for a block of free seats.
type SearchRequest struct {
	Category string `json:"categoria"`
	Count    int    `json:"cantidad"`
}

// Suggestion is a successful search result: seats in a single zone
// and category that were free when the venue answered.
type Suggestion struct {
	Zone     string  `json:"zona"`
	Category string  `json:"categoria"`
	Seats    []Coord `json:"asientos"`
}

// HoldRequest asks the venue to place a temporary hold. The venue
// answers 400 when any listed seat is no longer free.
type HoldRequest struct {
	Zone     string  `json:"zona"`
	Category string  `json:"categoria"`
	Seats    []Coord `json:"asientos"`
}

// HoldResponse carries the server-issued reservation identifier.
type HoldResponse struct {
	ReservationID string `json:"reserva_id"`
}

// ReservationRequest is the body of the confirm and cancel calls.
type ReservationRequest struct {
	ReservationID string `json:"reserva_id"`
}

// PaymentRequest submits one payment attempt. Details keys depend on
// the method (see package payment).
type PaymentRequest struct {
	Method  string            `json:"metodo_pago"`
	Details map[string]string `json:"detalles"`
}

// PaymentResponse is the JSON form of a payment outcome. Some venue
// builds answer with a bare true/false body instead; the venue client
// accepts both.
type PaymentResponse struct {
	Approved bool   `json:"aprobado"`
	Message  string `json:"mensaje,omitempty"`
}
