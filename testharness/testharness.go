// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package testharness provides a fake kcore.Source and a fake
// kcore.TimerFactory so that scheduler tests driven by the sleep queue and
// the timer (mutex/condvar timeouts, quantum expiry) are reproducible by
// an explicit Advance call instead of racing wall-clock sleeps.
package testharness

import (
	"sync"
	"time"

	"kx.dev/x/rtkernel/kcore"
)

// FakeClock is a kcore.Source whose reading only moves when Advance is
// called, never on its own.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*FakeTimer
}

// NewFakeClock returns a FakeClock initialized to an arbitrary, fixed
// epoch (never the real wall clock, so tests stay deterministic across
// runs and machines).
func NewFakeClock() *FakeClock {
	return &FakeClock{now: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// Now implements kcore.Source.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// NowNoInterlock implements kcore.Source.
func (c *FakeClock) NowNoInterlock() time.Time { return c.Now() }

// Advance moves the clock forward by d and fires any FakeTimer whose
// deadline has now passed, in deadline order.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	c.mu.Unlock()
	c.fireDue(now)
}

func (c *FakeClock) fireDue(now time.Time) {
	for {
		c.mu.Lock()
		var due *FakeTimer
		for _, t := range c.timers {
			if t.stopped || t.deadline.After(now) {
				continue
			}
			if due == nil || t.deadline.Before(due.deadline) {
				due = t
			}
		}
		if due != nil {
			due.stopped = true
		}
		c.mu.Unlock()
		if due == nil {
			return
		}
		due.fire()
	}
}

// NewTimer is a kcore.TimerFactory backed by c: Reset/Stop manipulate an
// entry in c's timer set instead of arming real OS timers.
func (c *FakeClock) NewTimer(d time.Duration, fire func()) kcore.Timer {
	t := &FakeTimer{clock: c, fire: fire}
	c.mu.Lock()
	t.deadline = c.now.Add(d)
	c.timers = append(c.timers, t)
	c.mu.Unlock()
	return t
}

// FakeTimer is the kcore.Timer returned by FakeClock.NewTimer.
type FakeTimer struct {
	clock    *FakeClock
	fire     func()
	deadline time.Time
	stopped  bool
}

// Reset implements kcore.Timer.
func (t *FakeTimer) Reset(d time.Duration) {
	t.clock.mu.Lock()
	t.deadline = t.clock.now.Add(d)
	t.stopped = false
	t.clock.mu.Unlock()
}

// Stop implements kcore.Timer.
func (t *FakeTimer) Stop() {
	t.clock.mu.Lock()
	t.stopped = true
	t.clock.mu.Unlock()
}
