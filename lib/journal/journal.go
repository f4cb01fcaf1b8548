// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package journal persists the reservation a process currently holds.
// The controller writes an entry when a hold succeeds and clears it on
// every terminal transition. A journal found on startup means the
// previous process died with a hold outstanding; if the hold has not
// expired yet, it can still be released explicitly instead of waiting
// for the venue's TTL.
//
// Entries are written atomically (temporary file, fsync, rename) so a
// reader never sees a torn write, and encoded as deterministic CBOR.
// [Acquire] serializes processes sharing a journal.
package journal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/seatwise/boxoffice/lib/codec"
	"github.com/seatwise/boxoffice/lib/schema"
)

// Entry describes one outstanding hold.
type Entry struct {
	ReservationID string         `cbor:"reservation_id"`
	Zone          string         `cbor:"zone"`
	Category      string         `cbor:"category"`
	Seats         []schema.Coord `cbor:"seats"`
	CreatedAt     time.Time      `cbor:"created_at"`
	ExpiresAt     time.Time      `cbor:"expires_at"`
}

// Write atomically replaces the journal at path with entry. The file
// is created with mode 0600; the parent directory must exist.
func Write(path string, entry Entry) error {
	data, err := codec.Marshal(entry)
	if err != nil {
		return fmt.Errorf("journal: encoding entry: %w", err)
	}

	temporaryPath := path + ".tmp"
	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("journal: creating temporary file: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("journal: writing temporary file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("journal: syncing temporary file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("journal: closing temporary file: %w", err)
	}
	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("journal: renaming into place: %w", err)
	}

	if directory, err := os.Open(filepath.Dir(path)); err == nil {
		directory.Sync()
		directory.Close()
	}
	return nil
}

// Read decodes the journal at path. A missing file yields an error
// wrapping os.ErrNotExist.
func Read(path string) (Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Entry{}, err
	}
	var entry Entry
	if err := codec.Unmarshal(data, &entry); err != nil {
		return Entry{}, fmt.Errorf("journal: parsing %s: %w", path, err)
	}
	if entry.ReservationID == "" {
		return Entry{}, fmt.Errorf("journal: parsing %s: missing reservation id", path)
	}
	return entry, nil
}

// Check returns the journaled entry and true when one exists and has
// not expired at now. A missing or expired journal returns false with
// a nil error; the expired entry is still returned so callers can log
// what lapsed. Unreadable or corrupt journals return the error.
func Check(path string, now time.Time) (Entry, bool, error) {
	entry, err := Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Entry{}, false, nil
		}
		return Entry{}, false, err
	}
	if !now.Before(entry.ExpiresAt) {
		return entry, false, nil
	}
	return entry, true, nil
}

// Clear removes the journal. A missing file is not an error.
func Clear(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("journal: removing %s: %w", path, err)
	}
	return nil
}
