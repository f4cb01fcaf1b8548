// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package venuetest runs an in-memory venue server for tests. It
// implements the same endpoints and answers as the real venue:
// occupancy-ordered consecutive seat search, temporary holds,
// plain-text boolean confirm/cancel/pay answers, and a websocket push
// endpoint that broadcasts the full structure after every mutation.
//
// Server-side hold expiry is not automatic; tests call ExpireHold.
package venuetest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/seatwise/boxoffice/lib/schema"
	"github.com/seatwise/boxoffice/venue"
)

// Server is a fake venue. All methods are safe for concurrent use.
type Server struct {
	httpServer *httptest.Server
	paths      venue.Paths

	mu          sync.Mutex
	structure   schema.Structure
	holds       map[string]heldSeats
	approvePay  bool
	failures    map[string][]int
	calls       map[string]int
	payments    []schema.PaymentRequest
	subscribers map[*websocket.Conn]context.CancelFunc
	subscribed  chan struct{}
}

type heldSeats struct {
	zone     string
	category string
	seats    []schema.Coord
}

// New starts a venue serving structure. The server is closed when the
// test ends. Payments are approved until SetPaymentApproved(false).
func New(t testing.TB, structure schema.Structure) *Server {
	t.Helper()
	server := &Server{
		paths:       venue.DefaultPaths(),
		structure:   cloneStructure(structure),
		holds:       make(map[string]heldSeats),
		approvePay:  true,
		failures:    make(map[string][]int),
		calls:       make(map[string]int),
		subscribers: make(map[*websocket.Conn]context.CancelFunc),
		subscribed:  make(chan struct{}, 16),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+server.paths.Structure, server.handle("structure", server.handleStructure))
	mux.HandleFunc("POST "+server.paths.Search, server.handle("search", server.handleSearch))
	mux.HandleFunc("POST "+server.paths.Hold, server.handle("hold", server.handleHold))
	mux.HandleFunc("POST "+server.paths.Confirm, server.handle("confirm", server.handleConfirm))
	mux.HandleFunc("POST "+server.paths.Cancel, server.handle("cancel", server.handleCancel))
	mux.HandleFunc("POST "+server.paths.Pay, server.handle("pay", server.handlePay))
	mux.HandleFunc("GET /ws", server.handlePush)

	server.httpServer = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

// Grid builds a single-zone, single-category structure in which every
// seat has state.
func Grid(zone, category string, rows, columns int, state schema.SeatState) schema.Structure {
	cells := make([][]schema.SeatCell, rows)
	for row := range cells {
		cells[row] = make([]schema.SeatCell, columns)
		for column := range cells[row] {
			cells[row][column] = schema.SeatCell{State: state}
		}
	}
	return schema.Structure{Zones: []schema.Zone{{
		Name:       zone,
		Categories: map[string][][]schema.SeatCell{category: cells},
	}}}
}

// URL is the base URL for venue.ClientConfig.
func (s *Server) URL() string { return s.httpServer.URL }

// PushURL is the websocket URL of the push endpoint.
func (s *Server) PushURL() string {
	return "ws" + strings.TrimPrefix(s.httpServer.URL, "http") + "/ws"
}

// Close disconnects push subscribers and stops the server.
func (s *Server) Close() {
	s.DropSubscribers()
	s.httpServer.Close()
}

// Subscribed receives once per accepted push subscription.
func (s *Server) Subscribed() <-chan struct{} { return s.subscribed }

// FailNext makes the next calls to op ("structure", "search", "hold",
// "confirm", "cancel", "pay") answer with the given statuses, one per
// call, before normal handling resumes.
func (s *Server) FailNext(op string, statuses ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = append(s.failures[op], statuses...)
}

// SetPaymentApproved sets the answer to every following payment.
func (s *Server) SetPaymentApproved(approved bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.approvePay = approved
}

// Calls returns how many requests op has received, failed ones
// included.
func (s *Server) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// Payments returns every payment request received.
func (s *Server) Payments() []schema.PaymentRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]schema.PaymentRequest(nil), s.payments...)
}

// HoldCount returns the number of live holds.
func (s *Server) HoldCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.holds)
}

// Structure returns a copy of the current seat map.
func (s *Server) Structure() schema.Structure {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneStructure(s.structure)
}

// SeatState returns one seat's state, or "" when it does not exist.
func (s *Server) SeatState(zone, category string, row, column int) schema.SeatState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cell := s.cellLocked(zone, category, schema.Coord{Row: row, Column: column}); cell != nil {
		return cell.State
	}
	return ""
}

// SetSeat changes one seat, as another client's activity would, and
// broadcasts the new structure.
func (s *Server) SetSeat(zone, category string, row, column int, state schema.SeatState) {
	s.mu.Lock()
	if cell := s.cellLocked(zone, category, schema.Coord{Row: row, Column: column}); cell != nil {
		cell.State = state
	}
	s.mu.Unlock()
	s.Broadcast()
}

// ExpireHold releases a hold the way the venue's own TTL does.
func (s *Server) ExpireHold(reservationID string) bool {
	s.mu.Lock()
	released := s.releaseLocked(reservationID, schema.SeatFree)
	s.mu.Unlock()
	if released {
		s.Broadcast()
	}
	return released
}

// Broadcast pushes the current structure to every subscriber.
func (s *Server) Broadcast() {
	s.mu.Lock()
	data, _ := json.Marshal(s.structure)
	subscribers := make([]*websocket.Conn, 0, len(s.subscribers))
	for conn := range s.subscribers {
		subscribers = append(subscribers, conn)
	}
	s.mu.Unlock()

	s.Push(subscribers, data)
}

// PushRaw sends data verbatim to every subscriber, for malformed
// payload tests.
func (s *Server) PushRaw(data []byte) {
	s.mu.Lock()
	subscribers := make([]*websocket.Conn, 0, len(s.subscribers))
	for conn := range s.subscribers {
		subscribers = append(subscribers, conn)
	}
	s.mu.Unlock()

	s.Push(subscribers, data)
}

// Push writes data to the given subscriber connections.
func (s *Server) Push(subscribers []*websocket.Conn, data []byte) {
	for _, conn := range subscribers {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = conn.Write(ctx, websocket.MessageText, data)
		cancel()
	}
}

// DropSubscribers closes every push connection, as a venue restart
// would.
func (s *Server) DropSubscribers() {
	s.mu.Lock()
	subscribers := s.subscribers
	s.subscribers = make(map[*websocket.Conn]context.CancelFunc)
	s.mu.Unlock()

	for conn, cancel := range subscribers {
		conn.Close(websocket.StatusGoingAway, "venue restarting")
		cancel()
	}
}

// handle wraps an endpoint with call counting and injected failures.
func (s *Server) handle(op string, next func(http.ResponseWriter, *http.Request) bool) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		s.mu.Lock()
		s.calls[op]++
		var status int
		if pending := s.failures[op]; len(pending) > 0 {
			status = pending[0]
			s.failures[op] = pending[1:]
		}
		s.mu.Unlock()

		if status != 0 {
			http.Error(writer, "injected failure", status)
			return
		}
		if next(writer, request) {
			s.Broadcast()
		}
	}
}

func (s *Server) handleStructure(writer http.ResponseWriter, _ *http.Request) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(writer, s.structure)
	return false
}

func (s *Server) handleSearch(writer http.ResponseWriter, request *http.Request) bool {
	var search schema.SearchRequest
	if err := json.NewDecoder(request.Body).Decode(&search); err != nil {
		http.Error(writer, err.Error(), http.StatusBadRequest)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if suggestion, ok := s.searchLocked(search.Category, search.Count); ok {
		writeJSON(writer, suggestion)
		return false
	}
	http.Error(writer, "No se encontraron asientos consecutivos disponibles", http.StatusNotFound)
	return false
}

// searchLocked scans zones in ascending occupancy order and returns
// the first run of count consecutive free seats in a row of category.
func (s *Server) searchLocked(category string, count int) (schema.Suggestion, bool) {
	if count <= 0 {
		return schema.Suggestion{}, false
	}
	zones := append([]schema.Zone(nil), s.structure.Zones...)
	sort.SliceStable(zones, func(i, j int) bool {
		return occupancy(zones[i]) < occupancy(zones[j])
	})

	for _, zone := range zones {
		for rowIndex, row := range zone.Categories[category] {
			var run []schema.Coord
			for column, cell := range row {
				if cell.State != schema.SeatFree {
					run = run[:0]
					continue
				}
				run = append(run, schema.Coord{Row: rowIndex, Column: column})
				if len(run) == count {
					return schema.Suggestion{Zone: zone.Name, Category: category, Seats: run}, true
				}
			}
		}
	}
	return schema.Suggestion{}, false
}

func (s *Server) handleHold(writer http.ResponseWriter, request *http.Request) bool {
	var hold schema.HoldRequest
	if err := json.NewDecoder(request.Body).Decode(&hold); err != nil {
		http.Error(writer, err.Error(), http.StatusBadRequest)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, coord := range hold.Seats {
		cell := s.cellLocked(hold.Zone, hold.Category, coord)
		if cell == nil {
			http.Error(writer, "Asiento fuera de rango.", http.StatusBadRequest)
			return false
		}
		if cell.State != schema.SeatFree {
			http.Error(writer, "Uno o más asientos no están disponibles.", http.StatusBadRequest)
			return false
		}
	}
	for _, coord := range hold.Seats {
		s.cellLocked(hold.Zone, hold.Category, coord).State = schema.SeatTemporarilyHeld
	}
	reservationID := uuid.NewString()
	s.holds[reservationID] = heldSeats{zone: hold.Zone, category: hold.Category, seats: hold.Seats}
	writeJSON(writer, schema.HoldResponse{ReservationID: reservationID})
	return true
}

func (s *Server) handleConfirm(writer http.ResponseWriter, request *http.Request) bool {
	return s.finishHold(writer, request, schema.SeatPurchased)
}

func (s *Server) handleCancel(writer http.ResponseWriter, request *http.Request) bool {
	return s.finishHold(writer, request, schema.SeatFree)
}

func (s *Server) finishHold(writer http.ResponseWriter, request *http.Request, final schema.SeatState) bool {
	var body schema.ReservationRequest
	if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
		http.Error(writer, err.Error(), http.StatusBadRequest)
		return false
	}

	s.mu.Lock()
	released := s.releaseLocked(body.ReservationID, final)
	s.mu.Unlock()

	if released {
		writer.Write([]byte("true"))
	} else {
		writer.Write([]byte("false"))
	}
	return released
}

func (s *Server) handlePay(writer http.ResponseWriter, request *http.Request) bool {
	var payment schema.PaymentRequest
	if err := json.NewDecoder(request.Body).Decode(&payment); err != nil {
		http.Error(writer, err.Error(), http.StatusBadRequest)
		return false
	}

	s.mu.Lock()
	s.payments = append(s.payments, payment)
	approved := s.approvePay
	s.mu.Unlock()

	if approved {
		writer.Write([]byte("true"))
	} else {
		writer.Write([]byte("false"))
	}
	return false
}

func (s *Server) handlePush(writer http.ResponseWriter, request *http.Request) {
	conn, err := websocket.Accept(writer, request, nil)
	if err != nil {
		return
	}
	// Clients never send data messages; CloseRead handles control
	// frames and cancels ctx when the client goes away.
	ctx := conn.CloseRead(context.Background())
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.subscribers[conn] = cancel
	s.mu.Unlock()
	select {
	case s.subscribed <- struct{}{}:
	default:
	}

	<-ctx.Done()

	s.mu.Lock()
	delete(s.subscribers, conn)
	s.mu.Unlock()
	conn.CloseNow()
}

// releaseLocked ends a hold, moving its still-held seats to final.
func (s *Server) releaseLocked(reservationID string, final schema.SeatState) bool {
	hold, ok := s.holds[reservationID]
	if !ok {
		return false
	}
	delete(s.holds, reservationID)
	for _, coord := range hold.seats {
		if cell := s.cellLocked(hold.zone, hold.category, coord); cell != nil && cell.State == schema.SeatTemporarilyHeld {
			cell.State = final
		}
	}
	return true
}

func (s *Server) cellLocked(zone, category string, coord schema.Coord) *schema.SeatCell {
	for _, candidate := range s.structure.Zones {
		if candidate.Name != zone {
			continue
		}
		rows := candidate.Categories[category]
		if coord.Row >= len(rows) || coord.Column >= len(rows[coord.Row]) {
			return nil
		}
		return &rows[coord.Row][coord.Column]
	}
	return nil
}

func occupancy(zone schema.Zone) float64 {
	total, occupied := 0, 0
	for _, rows := range zone.Categories {
		for _, row := range rows {
			for _, cell := range row {
				total++
				if cell.State != schema.SeatFree {
					occupied++
				}
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(occupied) / float64(total)
}

func cloneStructure(structure schema.Structure) schema.Structure {
	clone := schema.Structure{Zones: make([]schema.Zone, len(structure.Zones))}
	for i, zone := range structure.Zones {
		categories := make(map[string][][]schema.SeatCell, len(zone.Categories))
		for name, rows := range zone.Categories {
			copied := make([][]schema.SeatCell, len(rows))
			for r, row := range rows {
				copied[r] = append([]schema.SeatCell{}, row...)
			}
			categories[name] = copied
		}
		clone.Zones[i] = schema.Zone{Name: zone.Name, Categories: categories}
	}
	return clone
}

func writeJSON(writer http.ResponseWriter, value any) {
	writer.Header().Set("Content-Type", "application/json")
	json.NewEncoder(writer).Encode(value)
}
