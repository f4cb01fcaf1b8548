// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDecodeStructure(t *testing.T) {
	payload := `{"zonas":[{"nombre":"A","categorias":{"VIP":[[{"estado":"Libre"},{"estado":"Comprado"}],[{"estado":"ReservadoTemporalmente"}]]}}]}`

	structure, err := DecodeStructure([]byte(payload))
	if err != nil {
		t.Fatalf("DecodeStructure: %v", err)
	}
	if len(structure.Zones) != 1 || structure.Zones[0].Name != "A" {
		t.Fatalf("zones = %+v, want one zone named A", structure.Zones)
	}
	grid := structure.Zones[0].Categories["VIP"]
	if len(grid) != 2 || len(grid[0]) != 2 || len(grid[1]) != 1 {
		t.Fatalf("VIP grid shape = %v, want ragged 2+1", grid)
	}
	if grid[0][1].State != SeatPurchased {
		t.Errorf("grid[0][1] = %q, want %q", grid[0][1].State, SeatPurchased)
	}
}

func TestStructureValidateRejects(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		wantPath string
	}{
		{"missing zonas", `{}`, "zonas: missing"},
		{"missing nombre", `{"zonas":[{"categorias":{}}]}`, "zonas[0].nombre"},
		{"duplicate zone", `{"zonas":[{"nombre":"A","categorias":{}},{"nombre":"A","categorias":{}}]}`, "zonas[1].nombre"},
		{"missing categorias", `{"zonas":[{"nombre":"A"}]}`, "zonas[0].categorias"},
		{"null row", `{"zonas":[{"nombre":"A","categorias":{"VIP":[null]}}]}`, `categorias["VIP"][0]`},
		{"missing estado", `{"zonas":[{"nombre":"A","categorias":{"VIP":[[{}]]}}]}`, `[0][0].estado: missing`},
		{"unknown estado", `{"zonas":[{"nombre":"A","categorias":{"VIP":[[{"estado":"Roto"}]]}}]}`, "unknown state"},
		{"local-only estado", `{"zonas":[{"nombre":"A","categorias":{"VIP":[[{"estado":"Sugerido"}]]}}]}`, "unknown state"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := DecodeStructure([]byte(test.payload))
			if err == nil {
				t.Fatal("DecodeStructure succeeded, want error")
			}
			if !strings.Contains(err.Error(), test.wantPath) {
				t.Errorf("error %q does not mention %q", err, test.wantPath)
			}
		})
	}
}

func TestNilStructureInvalid(t *testing.T) {
	var structure *Structure
	if err := structure.Validate(); err == nil || !strings.Contains(err.Error(), "structure: missing") {
		t.Errorf("Validate on nil structure = %v, want structure: missing", err)
	}
}

func TestCoordJSON(t *testing.T) {
	data, err := json.Marshal(Suggestion{Zone: "A", Category: "VIP", Seats: []Coord{{Row: 0, Column: 1}, {Row: 2, Column: 3}}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"zona":"A","categoria":"VIP","asientos":[[0,1],[2,3]]}`
	if string(data) != want {
		t.Errorf("Marshal = %s, want %s", data, want)
	}

	var decoded Suggestion
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(decoded.Seats) != 2 || decoded.Seats[1] != (Coord{Row: 2, Column: 3}) {
		t.Errorf("decoded seats = %v", decoded.Seats)
	}

	for _, bad := range []string{`[1]`, `[1,2,3]`, `[-1,0]`, `"0,1"`} {
		var coord Coord
		if err := json.Unmarshal([]byte(bad), &coord); err == nil {
			t.Errorf("Unmarshal(%s) succeeded, want error", bad)
		}
	}
}
