// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kcore

import "time"

// Mutex is a blocking exclusive lock, scheduled through the owning
// Scheduler rather than spun on with atomics: Lock suspends the calling
// thread onto a wait queue instead of spinning, since the scheduler
// underneath gives every blocked thread somewhere to suspend into.
// Ownership identity is tracked only in the kcore_debug build; outside it,
// holding the lock across Unlock is a cooperative invariant enforced by
// callers, not by the core itself.
type Mutex struct {
	sched   *Scheduler
	locked  bool
	waiters *List
	owner   *Thread // kcore_debug only; always nil in release builds
}

// NewMutex constructs an unlocked Mutex scheduled through s.
func (s *Scheduler) NewMutex() *Mutex {
	return &Mutex{sched: s, waiters: NewWaitQueue()}
}

// Lock blocks until m is free, then acquires it.
func (m *Mutex) Lock() {
	me := m.sched.current
	if me != nil {
		me.CheckIn()
	}
	m.sched.gate.Enter()
	if m.locked {
		m.sched.saveContext(me, func() {
			m.sched.suspendOnWait(me, m.waiters)
		})
		// Woken by Unlock: ownership was handed directly to us, without
		// a re-race against other lockers.
	} else {
		m.locked = true
	}
	m.debugSetOwner(me)
	m.sched.gate.Leave()
}

// Unlock releases m, transferring ownership directly to the head of its
// wait queue if one exists (so the woken thread never has to re-acquire
// against fresh contention) or marking m free otherwise.
func (m *Mutex) Unlock() {
	m.sched.gate.Enter()
	m.unlockLocked()
	m.sched.gate.Leave()
}

// unlockLocked is Unlock's body for a caller that already holds the gate,
// used by CondVar.Wait/WaitOrTimeout so that releasing the mutex and
// suspending on the condition's wait queue happen as one atomic section
// with respect to a concurrent Signal/Broadcast — entering the gate twice
// on one goroutine would deadlock against kcore's non-reentrant Gate.
func (m *Mutex) unlockLocked() {
	m.debugCheckOwner()
	head := m.waiters.PopHead()
	if head == nil {
		m.locked = false
	} else {
		detachSleep(head) // a timed waiter may also sit on the sleep queue
		t := threadOf(head)
		t.didNotTimeout = true
		m.sched.reschedule(t)
		// m.locked remains true: t now owns the mutex.
	}
	m.debugSetOwner(nil)
}

// LockOrTimeout blocks until m is free or absDeadline passes, whichever is
// first, returning whether the lock was acquired. Whether woken by Unlock
// or by timerElapsed popping the sleep queue, the waiter is already back
// on the ready queue by the time this resumes (both paths go through
// reschedule, which handles the wait-link bookkeeping), so there is
// nothing left to detach here.
func (m *Mutex) LockOrTimeout(absDeadline time.Time) bool {
	me := m.sched.current
	if me != nil {
		me.CheckIn()
	}
	m.sched.gate.Enter()
	if !m.locked {
		m.locked = true
		m.debugSetOwner(me)
		m.sched.gate.Leave()
		return true
	}

	me.Node.timeout = absDeadline
	me.didNotTimeout = true
	m.sched.saveContext(me, func() {
		m.sched.ready.Remove(&me.Node)
		m.waiters.Insert(&me.Node)
		m.sched.suspendOnSleep(me)
	})

	acquired := me.didNotTimeout
	if acquired {
		m.debugSetOwner(me)
	}
	m.sched.gate.Leave()
	return acquired
}
