// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package seatmap

import (
	"errors"
	"fmt"
	"sync"

	"github.com/seatwise/boxoffice/lib/schema"
)

// ErrMalformedSnapshot is wrapped by every Load and ApplyDelta error
// caused by a payload that lacks expected structure. The cache is left
// unchanged when it is returned.
var ErrMalformedSnapshot = errors.New("malformed snapshot")

// SeatKey identifies a seat.
type SeatKey struct {
	Zone     string
	Category string
	Row      int
	Column   int
}

func (k SeatKey) String() string {
	return fmt.Sprintf("%s/%s(%d,%d)", k.Zone, k.Category, k.Row, k.Column)
}

// Coord returns the seat's position within its category grid.
func (k SeatKey) Coord() schema.Coord {
	return schema.Coord{Row: k.Row, Column: k.Column}
}

// Seat is a point-in-time copy of a cached seat.
type Seat struct {
	Key SeatKey

	// State is what observers should display.
	State schema.SeatState

	// ServerState is the state the venue last reported.
	ServerState schema.SeatState
}

// Change describes one seat's displayed state moving From -> To. From
// is empty for seats created by Load.
type Change struct {
	Key  SeatKey
	From schema.SeatState
	To   schema.SeatState
}

// DeltaResult reports what ApplyDelta did.
type DeltaResult struct {
	// Changed counts seats whose displayed state changed.
	Changed int

	// Unknown counts cells addressing a zone, category, or position
	// that the cache does not hold. They are ignored.
	Unknown int
}

type groupKey struct {
	zone     string
	category string
}

type seat struct {
	key    SeatKey
	state  schema.SeatState
	server schema.SeatState
}

func (s *seat) snapshot() Seat {
	return Seat{Key: s.key, State: s.state, ServerState: s.server}
}

// group holds one category's seats in row-major order plus a
// coordinate index into them.
type group struct {
	seats []*seat
	index map[schema.Coord]*seat
}

// Cache is the seat map. The zero value is not usable; call New.
type Cache struct {
	mu     sync.Mutex
	groups map[groupKey]*group
	order  []groupKey
	loaded bool

	// notifyMu is acquired before mu is released on every mutation
	// and held while observers run, so batches reach observers in
	// mutation order.
	notifyMu     sync.Mutex
	observers    map[int]func([]Change)
	nextObserver int
}

// New returns an empty cache. Until Load succeeds, Find returns
// nothing and ApplyDelta reports every cell as unknown.
func New() *Cache {
	return &Cache{
		groups:    make(map[groupKey]*group),
		observers: make(map[int]func([]Change)),
	}
}

// Loaded reports whether Load has succeeded at least once.
func (c *Cache) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// Load replaces the entire cache from a full structure. Seat objects
// from an earlier Load are discarded, including any Suggested
// highlight on them.
func (c *Cache) Load(structure *schema.Structure) error {
	if err := structure.Validate(); err != nil {
		return fmt.Errorf("seatmap: load: %w: %w", ErrMalformedSnapshot, err)
	}

	groups := make(map[groupKey]*group)
	var order []groupKey
	var changes []Change
	for _, zone := range structure.Zones {
		for _, category := range zone.CategoryNames() {
			key := groupKey{zone: zone.Name, category: category}
			built := &group{index: make(map[schema.Coord]*seat)}
			for row, cells := range zone.Categories[category] {
				for column, cell := range cells {
					entry := &seat{
						key:    SeatKey{Zone: zone.Name, Category: category, Row: row, Column: column},
						state:  cell.State,
						server: cell.State,
					}
					built.seats = append(built.seats, entry)
					built.index[entry.key.Coord()] = entry
					changes = append(changes, Change{Key: entry.key, To: cell.State})
				}
			}
			groups[key] = built
			order = append(order, key)
		}
	}

	c.mu.Lock()
	c.groups = groups
	c.order = order
	c.loaded = true
	c.publishAndUnlock(changes)
	return nil
}

// ApplyDelta patches seat states from a structure snapshot. Every cell
// whose reported state differs from the seat's last reported server
// state overwrites the seat, Suggested or not. Cells repeating the
// known server state change nothing, which makes ApplyDelta
// idempotent. Zones and categories absent from the snapshot are not
// touched.
func (c *Cache) ApplyDelta(structure *schema.Structure) (DeltaResult, error) {
	if err := structure.Validate(); err != nil {
		return DeltaResult{}, fmt.Errorf("seatmap: apply delta: %w: %w", ErrMalformedSnapshot, err)
	}

	c.mu.Lock()
	var result DeltaResult
	var changes []Change
	for _, zone := range structure.Zones {
		for _, category := range zone.CategoryNames() {
			cells := zone.Categories[category]
			target, ok := c.groups[groupKey{zone: zone.Name, category: category}]
			if !ok {
				for _, row := range cells {
					result.Unknown += len(row)
				}
				continue
			}
			for row, rowCells := range cells {
				for column, cell := range rowCells {
					entry, ok := target.index[schema.Coord{Row: row, Column: column}]
					if !ok {
						result.Unknown++
						continue
					}
					if cell.State == entry.server {
						continue
					}
					previous := entry.state
					entry.server = cell.State
					entry.state = cell.State
					if previous != cell.State {
						changes = append(changes, Change{Key: entry.key, From: previous, To: cell.State})
					}
				}
			}
		}
	}
	result.Changed = len(changes)
	c.publishAndUnlock(changes)
	return result, nil
}

// Find returns copies of the cached seats at coords within zone and
// category, in the order given. Coordinates the cache does not hold
// are skipped; an empty result is not an error.
func (c *Cache) Find(zone, category string, coords []schema.Coord) []Seat {
	c.mu.Lock()
	defer c.mu.Unlock()

	target, ok := c.groups[groupKey{zone: zone, category: category}]
	if !ok {
		return nil
	}
	var found []Seat
	for _, coord := range coords {
		if entry, ok := target.index[coord]; ok {
			found = append(found, entry.snapshot())
		}
	}
	return found
}

// Lookup returns a single seat.
func (c *Cache) Lookup(key SeatKey) (Seat, bool) {
	found := c.Find(key.Zone, key.Category, []schema.Coord{key.Coord()})
	if len(found) == 0 {
		return Seat{}, false
	}
	return found[0], true
}

// Highlight clears any existing Suggested seats, then marks the seats
// at coords as Suggested. Only seats whose server state is Free are
// marked. Returns the seats that were highlighted.
func (c *Cache) Highlight(zone, category string, coords []schema.Coord) []Seat {
	c.mu.Lock()
	changes := c.resetSuggestedLocked()

	var highlighted []Seat
	if target, ok := c.groups[groupKey{zone: zone, category: category}]; ok {
		for _, coord := range coords {
			entry, ok := target.index[coord]
			if !ok || entry.server != schema.SeatFree || entry.state == schema.SeatSuggested {
				continue
			}
			changes = append(changes, Change{Key: entry.key, From: entry.state, To: schema.SeatSuggested})
			entry.state = schema.SeatSuggested
			highlighted = append(highlighted, entry.snapshot())
		}
	}
	c.publishAndUnlock(changes)
	return highlighted
}

// ResetSuggested returns every Suggested seat to its last reported
// server state and reports how many seats it reset.
func (c *Cache) ResetSuggested() int {
	c.mu.Lock()
	changes := c.resetSuggestedLocked()
	c.publishAndUnlock(changes)
	return len(changes)
}

func (c *Cache) resetSuggestedLocked() []Change {
	var changes []Change
	for _, key := range c.order {
		for _, entry := range c.groups[key].seats {
			if entry.state != schema.SeatSuggested {
				continue
			}
			entry.state = entry.server
			changes = append(changes, Change{Key: entry.key, From: schema.SeatSuggested, To: entry.server})
		}
	}
	return changes
}

// Suggested returns every seat currently highlighted.
func (c *Cache) Suggested() []Seat {
	c.mu.Lock()
	defer c.mu.Unlock()

	var suggested []Seat
	for _, key := range c.order {
		for _, entry := range c.groups[key].seats {
			if entry.state == schema.SeatSuggested {
				suggested = append(suggested, entry.snapshot())
			}
		}
	}
	return suggested
}

// Subscribe registers fn to receive every batch of seat changes.
// The returned function removes the registration.
func (c *Cache) Subscribe(fn func([]Change)) (unsubscribe func()) {
	c.notifyMu.Lock()
	id := c.nextObserver
	c.nextObserver++
	c.observers[id] = fn
	c.notifyMu.Unlock()

	return func() {
		c.notifyMu.Lock()
		delete(c.observers, id)
		c.notifyMu.Unlock()
	}
}

// publishAndUnlock hands off from mu to notifyMu and delivers changes
// to observers. Must be called with mu held.
func (c *Cache) publishAndUnlock(changes []Change) {
	if len(changes) == 0 {
		c.mu.Unlock()
		return
	}
	c.notifyMu.Lock()
	c.mu.Unlock()
	defer c.notifyMu.Unlock()
	for _, observer := range c.observers {
		observer(changes)
	}
}
