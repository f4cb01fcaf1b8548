// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Structure is the venue's complete seat map.
type Structure struct {
	Zones []Zone `json:"zonas"`
}

// Zone is a named group of seat categories.
type Zone struct {
	Name string `json:"nombre"`

	// Categories maps each category name to its seat grid, indexed
	// [row][column]. Rows may differ in length.
	Categories map[string][][]SeatCell `json:"categorias"`
}

// SeatCell is one seat as it appears on the wire.
type SeatCell struct {
	State SeatState `json:"estado"`
}

// CategoryNames returns the zone's category names in sorted order.
// The wire carries categories as a JSON object, so there is no
// intrinsic order.
func (z Zone) CategoryNames() []string {
	names := make([]string, 0, len(z.Categories))
	for name := range z.Categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that every zone, category, row, and seat carries the
// fields the client depends on. The returned error names the first
// offending element by its wire path, e.g.
// zonas[1].categorias["VIP"][2][0].estado.
func (s *Structure) Validate() error {
	if s == nil {
		return fmt.Errorf("structure: missing")
	}
	if s.Zones == nil {
		return fmt.Errorf("zonas: missing")
	}
	seen := make(map[string]bool, len(s.Zones))
	for zoneIndex, zone := range s.Zones {
		if zone.Name == "" {
			return fmt.Errorf("zonas[%d].nombre: missing", zoneIndex)
		}
		if seen[zone.Name] {
			return fmt.Errorf("zonas[%d].nombre: duplicate zone %q", zoneIndex, zone.Name)
		}
		seen[zone.Name] = true
		if zone.Categories == nil {
			return fmt.Errorf("zonas[%d].categorias: missing", zoneIndex)
		}
		for _, category := range zone.CategoryNames() {
			if category == "" {
				return fmt.Errorf("zonas[%d].categorias: empty category name", zoneIndex)
			}
			for row, seats := range zone.Categories[category] {
				if seats == nil {
					return fmt.Errorf("zonas[%d].categorias[%q][%d]: missing row", zoneIndex, category, row)
				}
				for column, seat := range seats {
					if seat.State == "" {
						return fmt.Errorf("zonas[%d].categorias[%q][%d][%d].estado: missing", zoneIndex, category, row, column)
					}
					if !seat.State.IsServerState() {
						return fmt.Errorf("zonas[%d].categorias[%q][%d][%d].estado: unknown state %q", zoneIndex, category, row, column, seat.State)
					}
				}
			}
		}
	}
	return nil
}

// DecodeStructure parses and validates a structure payload.
func DecodeStructure(data []byte) (*Structure, error) {
	var structure Structure
	if err := json.Unmarshal(data, &structure); err != nil {
		return nil, fmt.Errorf("decoding structure: %w", err)
	}
	if err := structure.Validate(); err != nil {
		return nil, err
	}
	return &structure, nil
}
