// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package journal

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// ErrLocked means another process owns the journal.
var ErrLocked = errors.New("journal: in use by another process")

// Lock is an exclusive advisory lock on a journal. One process at a
// time may place holds against a given journal; a second one would
// overwrite the first one's entry.
type Lock struct {
	file *os.File
}

// Acquire takes the lock for the journal at path without blocking. It
// returns ErrLocked if another open lock exists, including one held
// by this process. The lock file is path + ".lock".
func Acquire(path string) (*Lock, error) {
	file, err := os.OpenFile(path+".lock", os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("journal: opening lock: %w", err)
	}
	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		file.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("journal: locking %s: %w", path, err)
	}
	return &Lock{file: file}, nil
}

// Release drops the lock. The lock file is left in place.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	if closeErr := l.file.Close(); err == nil {
		err = closeErr
	}
	l.file = nil
	if err != nil {
		return fmt.Errorf("journal: releasing lock: %w", err)
	}
	return nil
}
