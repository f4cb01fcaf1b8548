// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides the injectable time source used by the
// reservation controller and the update channel.
//
// Components take a Clock field and default it to Real(). Tests
// construct a FakeClock, start the component, wait for it to register
// its timer, then move time forward:
//
//	fake := clock.Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
//	controller, _ := reservation.New(reservation.Config{Clock: fake, ...})
//	// ... hold seats ...
//	fake.WaitForTimers(1)
//	fake.Advance(5 * time.Minute) // expiry callback runs here
//
// AfterFunc callbacks run synchronously inside Advance, in deadline
// order, so by the time Advance returns every callback whose deadline
// was reached has completed.
package clock
