// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package seatmap

import "github.com/seatwise/boxoffice/lib/schema"

// CategorySummary counts one category's seats by server state.
type CategorySummary struct {
	Zone     string                   `json:"zone"`
	Category string                   `json:"category"`
	Total    int                      `json:"total"`
	ByState  map[schema.SeatState]int `json:"by_state"`

	// Occupancy is the fraction of seats that are not Free, the
	// ordering key the venue uses when choosing a zone for a search.
	Occupancy float64 `json:"occupancy"`
}

// Summary returns per-category counts in load order. Suggested seats
// count under their server state.
func (c *Cache) Summary() []CategorySummary {
	c.mu.Lock()
	defer c.mu.Unlock()

	summaries := make([]CategorySummary, 0, len(c.order))
	for _, key := range c.order {
		summary := CategorySummary{
			Zone:     key.zone,
			Category: key.category,
			ByState:  make(map[schema.SeatState]int),
		}
		for _, entry := range c.groups[key].seats {
			summary.Total++
			summary.ByState[entry.server]++
		}
		if summary.Total > 0 {
			occupied := summary.Total - summary.ByState[schema.SeatFree]
			summary.Occupancy = float64(occupied) / float64(summary.Total)
		}
		summaries = append(summaries, summary)
	}
	return summaries
}
