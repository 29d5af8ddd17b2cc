// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kcore

import (
	"fmt"
	"time"
)

// DefaultTimerGuard is the slack added to every armed timer deadline to
// prevent undershoot cascades when the timer's clock runs faster than the
// reference clock it is measured against. Exposed as an overridable
// tunable rather than a hardcoded constant since the right guard value is
// hardware- and clock-source-dependent.
const DefaultTimerGuard = 50 * time.Microsecond

// DefaultQuantum is the maximum continuous execution duration granted to a
// thread before the timer preempts it, absent an explicit override.
const DefaultQuantum = 10 * time.Millisecond

// FatalFunc is invoked by the scheduler on its one unrecoverable
// condition: the ready queue going empty at resumeNext (deadlock). Thread
// construction never calls it. The default panics; klog.Fatalf is wired in
// by package kcmd's boot path.
type FatalFunc func(format string, args ...interface{})

// Timer is the one-shot countdown timer the scheduler reprograms for the
// running thread's end of quantum, at every resumeNext and at every tick
// that finds the quantum not yet used up; a sleep-queue change does not
// reprogram it. Reset(d) arms (or re-arms) the timer to
// fire d after now; Stop cancels a pending firing. The production
// implementation wraps time.AfterFunc; package testharness supplies a fake
// driven by an explicit Advance call for deterministic tests.
type Timer interface {
	Reset(d time.Duration)
	Stop()
}

// TimerFactory constructs a Timer that will call fire (with the scheduler's
// interrupt gate NOT held — the factory's caller is responsible for that,
// matching how a real timer IRQ arrives asynchronously) once the
// originally requested duration elapses.
type TimerFactory func(d time.Duration, fire func()) Timer

// Scheduler is the process-wide scheduling core: the ready queue, the
// sleep queue, and the identity of the currently running thread. Exactly
// one Scheduler should exist per program; it is constructed once at boot
// (kcmd's job) and threaded explicitly into every Thread/Mutex/CondVar
// constructor rather than reached through a package-level global, so tests
// can run independent schedulers concurrently.
type Scheduler struct {
	gate Gate

	clock   Source
	newTimer TimerFactory
	guard   time.Duration
	quantum time.Duration

	ready *List
	sleep *List

	current    *Thread
	primordial *Thread

	timer Timer

	fatal FatalFunc
}

// NewScheduler constructs a Scheduler. clock supplies monotonic time,
// newTimer constructs the one-shot countdown timer, quantum is the default
// per-thread quantum and guard the timer-programming slack described at
// DefaultTimerGuard. fatal is invoked (and must not return) on deadlock.
func NewScheduler(clock Source, newTimer TimerFactory, quantum, guard time.Duration, fatal FatalFunc) *Scheduler {
	if fatal == nil {
		fatal = func(format string, args ...interface{}) { panic(fmt.Sprintf(format, args...)) }
	}
	return &Scheduler{
		clock:    clock,
		newTimer: newTimer,
		guard:    guard,
		quantum:  quantum,
		ready:    NewWaitQueue(),
		sleep:    newSleepQueue(),
		fatal:    fatal,
	}
}

// NewProductionScheduler builds a Scheduler backed by the real monotonic
// clock and time.AfterFunc, the configuration every non-test caller wants.
func NewProductionScheduler(quantum time.Duration, fatal FatalFunc) *Scheduler {
	return NewScheduler(SystemClock, systemTimerFactory, quantum, DefaultTimerGuard, fatal)
}

func systemTimerFactory(d time.Duration, fire func()) Timer {
	return (*systemTimer)(time.AfterFunc(d, fire))
}

type systemTimer time.Timer

func (t *systemTimer) Reset(d time.Duration) { (*time.Timer)(t).Reset(d) }
func (t *systemTimer) Stop()                 { (*time.Timer)(t).Stop() }

// Setup builds the primordial thread (whose body is continuation), enqueues
// it, programs the timer, and transfers control to it. It never returns:
// on bare metal, control never returns to whatever called Setup because
// there was never a caller to return to (the boot code becomes irrelevant
// after the jump). Here the calling goroutine simply blocks forever.
//
// The primordial thread never terminates: once continuation returns it
// keeps running through CheckIn, handing the CPU on at each quantum expiry,
// so its end never leaves the ready queue empty.
func (s *Scheduler) Setup(continuation func(*Thread)) {
	s.primordial = s.newThread("primordial", s.quantum, func(t *Thread) {
		continuation(t)
		for {
			t.CheckIn()
		}
	})
	s.gate.Enter()
	s.reschedule(s.primordial)
	s.resumeNext()
	select {}
}

// Current returns the thread currently running, or nil before Setup.
func (s *Scheduler) Current() *Thread {
	s.gate.Enter()
	defer s.gate.Leave()
	return s.current
}

// Clock exposes the scheduler's time source to callers that need to
// compute absolute deadlines for LockOrTimeout/WaitOrTimeout/GetOrTimeout.
func (s *Scheduler) Clock() Source { return s.clock }

// reschedule unlinks t from whatever wait queue it is on (a no-op if it is
// on none) and appends it to the ready queue. Requires the gate held.
func (s *Scheduler) reschedule(t *Thread) {
	detachWait(&t.Node)
	s.ready.Insert(&t.Node)
}

// switchToNext reschedules t (the calling, currently running thread) and
// hands the CPU to the new ready-queue head. Used by Yield and by
// CheckIn's quantum-expiry path.
func (s *Scheduler) switchToNext(t *Thread) {
	s.reschedule(t)
	s.resumeNext()
}

// suspendOnWait removes t from the ready queue, enqueues it on q, and hands
// the CPU to the new ready-queue head.
func (s *Scheduler) suspendOnWait(t *Thread, q *List) {
	s.ready.Remove(&t.Node)
	q.Insert(&t.Node)
	s.resumeNext()
}

// suspendOnSleep enqueues t (already linked into an appropriate wait queue
// by the caller, and already removed from ready) onto the sleep queue
// ordered by t.Node.timeout, and hands the CPU to the new ready-queue head.
func (s *Scheduler) suspendOnSleep(t *Thread) {
	s.sleep.insertSorted(&t.Node)
	s.resumeNext()
}

// resumeNext picks the ready queue's head, makes it current, programs the
// timer for its quantum, and restores it. An empty ready queue is the
// scheduler's one fatal condition.
func (s *Scheduler) resumeNext() {
	DebugAssertHeld(&s.gate) // every suspend path ends here
	head := s.ready.Head()
	if head == nil {
		s.fatal("kcore: deadlock: ready queue is empty")
		return
	}
	next := threadOf(head)
	s.current = next
	now := s.clock.NowNoInterlock()
	next.endOfQuantum = Add(now, next.quantum)
	s.armTimer(next.endOfQuantum)
	restore(next)
}

// armTimer (re)programs the single countdown timer to fire at deadline
// plus the guard slack, creating it lazily on first use.
func (s *Scheduler) armTimer(deadline time.Time) {
	d := Sub(deadline, s.clock.NowNoInterlock()) + s.guard
	if d < 0 {
		d = 0
	}
	if s.timer == nil {
		s.timer = s.newTimer(d, s.onTimerFired)
		return
	}
	s.timer.Reset(d)
}

// onTimerFired is the timer's callback, standing in for the IRQ vector:
// it disables interrupts, runs timer_elapsed, and re-enables. Unlike every
// other entry to the core, this one does not originate on a kcore thread's
// own goroutine, so it must not attempt to park or restore anything beyond
// what timerElapsed itself does.
func (s *Scheduler) onTimerFired() {
	s.gate.Enter()
	s.timerElapsed()
	s.gate.Leave()
}

// timerElapsed moves any sleepers whose timeout has passed back onto the
// ready queue, then either reprograms the timer for the current thread's
// remaining quantum or, if the quantum is exhausted, requests that the
// current thread yield at its next safe point (see Thread.CheckIn — real
// hardware would switch synchronously here; a goroutine cannot be
// preempted from outside, so the switch is deferred to the current
// thread's own next call into the core).
func (s *Scheduler) timerElapsed() {
	now := s.clock.NowNoInterlock()
	for {
		head := s.sleep.Head()
		if head == nil || head.timeout.After(now) {
			break
		}
		t := threadOf(head)
		t.didNotTimeout = false
		detachSleep(head)
		s.reschedule(t)
	}
	cur := s.current
	if cur == nil {
		return
	}
	if now.Before(cur.endOfQuantum) {
		s.armTimer(cur.endOfQuantum)
		return
	}
	requestPreempt(cur)
}
