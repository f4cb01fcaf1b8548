// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestFakeClockAfter(t *testing.T) {
	fake := Fake(epoch)
	channel := fake.After(3 * time.Second)

	fake.Advance(2 * time.Second)
	select {
	case <-channel:
		t.Fatal("After fired before its deadline")
	default:
	}

	fake.Advance(time.Second)
	select {
	case fired := <-channel:
		if want := epoch.Add(3 * time.Second); !fired.Equal(want) {
			t.Errorf("fired at %v, want %v", fired, want)
		}
	default:
		t.Fatal("After did not fire at its deadline")
	}

	if immediate := fake.After(0); len(immediate) != 1 {
		t.Error("After(0) should deliver immediately")
	}
}

func TestFakeClockAfterFuncOrder(t *testing.T) {
	fake := Fake(epoch)
	var order []string
	fake.AfterFunc(2*time.Minute, func() { order = append(order, "second") })
	fake.AfterFunc(time.Minute, func() { order = append(order, "first") })

	fake.Advance(5 * time.Minute)

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("callback order = %v, want [first second]", order)
	}
	if pending := fake.PendingCount(); pending != 0 {
		t.Errorf("PendingCount() = %d after firing, want 0", pending)
	}
}

func TestFakeClockTimerStop(t *testing.T) {
	fake := Fake(epoch)
	fired := false
	timer := fake.AfterFunc(time.Minute, func() { fired = true })

	if !timer.Stop() {
		t.Fatal("Stop() on a pending timer returned false")
	}
	if timer.Stop() {
		t.Error("second Stop() returned true")
	}
	fake.Advance(time.Hour)
	if fired {
		t.Error("stopped timer fired")
	}

	ranTimer := fake.AfterFunc(time.Second, func() {})
	fake.Advance(time.Second)
	if ranTimer.Stop() {
		t.Error("Stop() after firing returned true")
	}
}

func TestFakeClockCallbackSchedulesWithinWindow(t *testing.T) {
	fake := Fake(epoch)
	var fired []time.Time
	fake.AfterFunc(time.Second, func() {
		fired = append(fired, fake.Now())
		fake.AfterFunc(time.Second, func() { fired = append(fired, fake.Now()) })
	})

	fake.Advance(10 * time.Second)
	if len(fired) != 2 {
		t.Fatalf("fired %d callbacks, want 2", len(fired))
	}
	if want := epoch.Add(2 * time.Second); !fired[1].Equal(want) {
		t.Errorf("nested callback saw Now() = %v, want %v", fired[1], want)
	}
	if want := epoch.Add(10 * time.Second); !fake.Now().Equal(want) {
		t.Errorf("Now() after Advance = %v, want %v", fake.Now(), want)
	}
}

func TestFakeClockWaitForTimers(t *testing.T) {
	fake := Fake(epoch)
	done := make(chan struct{})
	go func() {
		<-fake.After(time.Minute)
		close(done)
	}()

	fake.WaitForTimers(1)
	fake.Advance(time.Minute)

	select {
	case <-done:
	case <-time.After(5 * time.Second): //nolint:realclock test hang prevention
		t.Fatal("goroutine waiting on After was not released")
	}
}

func TestRealClockAfterFuncStop(t *testing.T) {
	timer := Real().AfterFunc(time.Hour, func() { t.Error("timer fired") })
	if !timer.Stop() {
		t.Error("Stop() on a pending real timer returned false")
	}
}
