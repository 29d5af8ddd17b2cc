// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kcore

import "time"

// CondVar is a condition variable scheduled through the owning Scheduler:
// waiters suspend onto a kcore wait queue rather than blocking on a
// semaphore. A CondVar is not zero-value-valid: it must be constructed via
// NewCondVar, since it needs a Scheduler and a backing List to suspend
// into (see DESIGN.md).
type CondVar struct {
	sched   *Scheduler
	waiters *List
}

// NewCondVar constructs an empty CondVar scheduled through s.
func (s *Scheduler) NewCondVar() *CondVar {
	return &CondVar{sched: s, waiters: NewWaitQueue()}
}

// Wait atomically unlocks m and suspends the calling thread until a Signal
// or Broadcast wakes it, then reacquires m before returning. Spurious
// wakeups do not occur in this implementation, but callers should still
// loop on their predicate per normal condition-variable discipline.
func (c *CondVar) Wait(m *Mutex) {
	me := m.sched.current
	me.CheckIn()
	c.sched.gate.Enter()
	m.unlockLocked()
	c.sched.saveContext(me, func() {
		c.sched.suspendOnWait(me, c.waiters)
	})
	c.sched.gate.Leave()
	m.Lock()
}

// WaitOrTimeout is Wait bounded by absDeadline, reporting whether it
// returned because of a Signal/Broadcast (true) rather than a timeout
// (false). m is always reacquired before returning, timeout or not — this
// is the one path where a blocked thread's lock-release ordering matters:
// m must already be unlocked before the thread suspends, or a signaler
// calling m.Lock() first would deadlock against us.
func (c *CondVar) WaitOrTimeout(m *Mutex, absDeadline time.Time) bool {
	me := m.sched.current
	me.CheckIn()
	c.sched.gate.Enter()
	m.unlockLocked()

	me.Node.timeout = absDeadline
	me.didNotTimeout = true
	c.sched.saveContext(me, func() {
		c.sched.ready.Remove(&me.Node)
		c.waiters.Insert(&me.Node)
		c.sched.suspendOnSleep(me)
	})

	// Whether woken by Signal/Broadcast or by timerElapsed popping the
	// sleep queue, the waiter is already back on the ready queue by the
	// time this resumes (both paths go through reschedule), so there is
	// nothing left to detach here.
	signaled := me.didNotTimeout
	c.sched.gate.Leave()
	m.Lock()
	return signaled
}

// Signal wakes at most one waiter, if any, chosen FIFO.
func (c *CondVar) Signal() {
	c.sched.gate.Enter()
	c.wakeOne()
	c.sched.gate.Leave()
}

// Broadcast wakes every current waiter.
func (c *CondVar) Broadcast() {
	c.sched.gate.Enter()
	for c.wakeOne() {
	}
	c.sched.gate.Leave()
}

// wakeOne pops and reschedules a single waiter, reporting whether one was
// found. Requires the gate held.
func (c *CondVar) wakeOne() bool {
	head := c.waiters.PopHead()
	if head == nil {
		return false
	}
	detachSleep(head)
	t := threadOf(head)
	t.didNotTimeout = true
	c.sched.reschedule(t)
	return true
}

// MutexlessWait suspends the calling thread on c with no associated mutex
// to release or reacquire. It enters the interrupt gate itself, so the
// caller must not hold the gate; a caller's check of its predicate and the
// call to MutexlessWait are therefore not one atomic section, and a
// MutexlessSignal delivered between the two is lost.
func (c *CondVar) MutexlessWait() {
	me := c.sched.current
	me.CheckIn()
	c.sched.gate.Enter()
	c.sched.saveContext(me, func() {
		c.sched.suspendOnWait(me, c.waiters)
	})
	c.sched.gate.Leave()
}

// MutexlessSignal is Signal for a CondVar used without an associated
// mutex. It behaves identically to Signal; the distinct name documents
// intent at call sites that never pair this CondVar with a Mutex.
func (c *CondVar) MutexlessSignal() {
	c.Signal()
}
