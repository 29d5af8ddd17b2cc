// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kcore

import "sync"

// Gate reproduces, on top of goroutines, the "disable/enable interrupts"
// critical section that every kcore sync primitive and the scheduler's own
// bookkeeping runs under. On bare metal this is CLI/STI around a region
// that must be atomic with respect to the timer interrupt; here it is a
// single mutual-exclusion lock shared by the Scheduler, every Mutex/CondVar/
// BoundedFifo operation, and the timer-tick handler, giving the same
// atomicity guarantee without assembly.
//
// Ownership deliberately does not stay with the goroutine that called
// Enter: a save/restore pair (context.go) routinely enters on one
// goroutine and leaves on whatever goroutine the scheduler resumes next,
// exactly like a single hardware IF bit rather than a per-goroutine lock.
// Nested disable is not supported: every entry disables once, every exit
// enables once.
type Gate struct {
	mu sync.Mutex
}

// Enter disables "interrupts", i.e. blocks until the gate is free and then
// takes it.
func (g *Gate) Enter() { g.mu.Lock() }

// Leave re-enables interrupts, releasing the gate.
func (g *Gate) Leave() { g.mu.Unlock() }

// tryHeld reports whether the gate is currently held by someone. It exists
// only to back DebugAssertHeld in the kcore_debug build; it is racy by
// design (a best-effort assertion aid, not a synchronization primitive) and
// only safe to use as a diagnostic, never as a basis for control flow.
func (g *Gate) tryHeld() bool {
	if g.mu.TryLock() {
		g.mu.Unlock()
		return false
	}
	return true
}
