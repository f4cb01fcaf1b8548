// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package journal

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/seatwise/boxoffice/lib/schema"
)

var created = time.Date(2026, 5, 1, 19, 0, 0, 0, time.UTC)

func sampleEntry() Entry {
	return Entry{
		ReservationID: "res-1",
		Zone:          "A",
		Category:      "VIP",
		Seats:         []schema.Coord{{Row: 0, Column: 0}, {Row: 0, Column: 1}},
		CreatedAt:     created,
		ExpiresAt:     created.Add(5 * time.Minute),
	}
}

func TestWriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hold.cbor")
	if err := Write(path, sampleEntry()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := sampleEntry()
	if got.ReservationID != want.ReservationID || got.Zone != want.Zone || got.Category != want.Category {
		t.Errorf("Read = %+v, want %+v", got, want)
	}
	if !got.ExpiresAt.Equal(want.ExpiresAt) || !got.CreatedAt.Equal(want.CreatedAt) {
		t.Errorf("timestamps = %v/%v, want %v/%v", got.CreatedAt, got.ExpiresAt, want.CreatedAt, want.ExpiresAt)
	}
	if len(got.Seats) != 2 || got.Seats[1] != want.Seats[1] {
		t.Errorf("seats = %v, want %v", got.Seats, want.Seats)
	}
}

func TestWriteOverwritesAndLeavesNoTemporary(t *testing.T) {
	directory := t.TempDir()
	path := filepath.Join(directory, "hold.cbor")
	if err := Write(path, sampleEntry()); err != nil {
		t.Fatalf("first Write: %v", err)
	}
	second := sampleEntry()
	second.ReservationID = "res-2"
	if err := Write(path, second); err != nil {
		t.Fatalf("second Write: %v", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.ReservationID != "res-2" {
		t.Errorf("ReservationID = %q, want res-2", got.ReservationID)
	}

	entries, _ := os.ReadDir(directory)
	if len(entries) != 1 {
		t.Errorf("directory holds %d files, want only the journal", len(entries))
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("mode = %o, want 600", perm)
	}
}

func TestWriteMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent", "hold.cbor")
	if err := Write(path, sampleEntry()); err == nil {
		t.Error("Write into a missing directory should fail")
	}
}

func TestReadErrors(t *testing.T) {
	directory := t.TempDir()
	if _, err := Read(filepath.Join(directory, "missing")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Read(missing) = %v, want os.ErrNotExist", err)
	}

	corrupt := filepath.Join(directory, "corrupt")
	os.WriteFile(corrupt, []byte{0xff, 0x01, 0x02}, 0o600)
	if _, err := Read(corrupt); err == nil {
		t.Error("Read(corrupt) should fail")
	}
}

func TestCheck(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hold.cbor")

	if _, live, err := Check(path, created); err != nil || live {
		t.Fatalf("Check(no journal) = %v, %v; want false, nil", live, err)
	}

	if err := Write(path, sampleEntry()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	entry, live, err := Check(path, created.Add(time.Minute))
	if err != nil || !live {
		t.Fatalf("Check(before expiry) = %v, %v; want true, nil", live, err)
	}
	if entry.ReservationID != "res-1" {
		t.Errorf("ReservationID = %q", entry.ReservationID)
	}

	entry, live, err = Check(path, created.Add(5*time.Minute))
	if err != nil || live {
		t.Fatalf("Check(at expiry) = %v, %v; want false, nil", live, err)
	}
	if entry.ReservationID != "res-1" {
		t.Errorf("expired entry should still be returned, got %+v", entry)
	}
}

func TestClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hold.cbor")
	if err := Clear(path); err != nil {
		t.Errorf("Clear(missing) = %v", err)
	}
	Write(path, sampleEntry())
	if err := Clear(path); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("journal still present after Clear: %v", err)
	}
}

func TestLockIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hold.cbor")

	first, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if _, err := Acquire(path); !errors.Is(err, ErrLocked) {
		t.Fatalf("second Acquire = %v, want ErrLocked", err)
	}

	if err := first.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := first.Release(); err != nil {
		t.Errorf("second Release = %v, want nil", err)
	}

	again, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	again.Release()
}
