// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kcore

import (
	"sync/atomic"
	"time"
)

// Thread is a cooperatively-scheduled unit of execution. Its stack is a
// goroutine (there is no manually managed stack buffer); everything else —
// quantum, end-of-quantum, timeout, the did-not-time-out flag, the
// termination flag and its joiner condition variable, and the queue node
// header — is bookkeeping the scheduler needs to run it.
//
// A live Thread is linked in exactly one of {ready queue, some wait queue}
// while it exists, except for the instant it is actually running (when it
// is the ready queue's head by invariant).
type Thread struct {
	Node

	sched *Scheduler
	name  string
	run   func(*Thread)
	baton chan struct{} // buffered(1); see context.go

	quantum      time.Duration
	endOfQuantum time.Time

	didNotTimeout bool
	terminated    bool

	joinMu *Mutex
	joinCV *CondVar

	preemptRequested uint32 // set by the timer tick, cleared by CheckIn
}

// Name returns the diagnostic name t was constructed with.
func (t *Thread) Name() string { return t.name }

// newThread allocates a Thread bound to s and starts its backing goroutine,
// which immediately parks waiting for its first restore. run is invoked on
// the thread's very first scheduling and is this thread's entire body; its
// return begins termination.
func (s *Scheduler) newThread(name string, quantum time.Duration, run func(*Thread)) *Thread {
	t := &Thread{
		sched:   s,
		name:    name,
		run:     run,
		baton:   make(chan struct{}, 1),
		quantum: quantum,
	}
	initNode(&t.Node, t)
	t.joinMu = s.NewMutex()
	t.joinCV = s.NewCondVar()
	go t.trampoline()
	return t
}

// NewThread constructs a new Thread bound to s with s's default quantum.
// The thread is detached from every queue until Start is called.
func (s *Scheduler) NewThread(name string, run func(*Thread)) *Thread {
	return s.newThread(name, s.quantum, run)
}

// trampoline is reached on the thread's first restore. On bare metal this
// is the fixed entry point baked into a fresh thread's initial stack frame;
// here it's simply the goroutine body. Because a fresh thread's synthetic
// frame is built with interrupts enabled, the trampoline — unlike every
// other resumption point — is responsible for releasing the interrupt gate
// itself before running the thread's body.
func (t *Thread) trampoline() {
	<-t.baton
	t.sched.gate.Leave()

	t.run(t)

	t.joinMu.Lock()
	t.terminated = true
	t.joinCV.Broadcast()
	t.joinMu.Unlock()

	t.sched.gate.Enter()
	t.sched.ready.Remove(&t.Node)
	t.sched.resumeNext()
}

// Start enqueues t onto the ready queue. Calling it on an already-started
// or terminated thread is a programming error the core does not detect.
func (t *Thread) Start() {
	t.sched.gate.Enter()
	t.sched.reschedule(t)
	t.sched.gate.Leave()
}

// Yield voluntarily gives up the remainder of t's quantum.
func (t *Thread) Yield() {
	t.sched.gate.Enter()
	t.sched.saveContext(t, func() { t.sched.switchToNext(t) })
	t.sched.gate.Leave()
}

// requestPreempt flags t for preemption at its next CheckIn, standing in
// for the timer interrupt vector directly switching threads the way real
// hardware would.
func requestPreempt(t *Thread) {
	atomic.StoreUint32(&t.preemptRequested, 1)
}

// CheckIn is the safe point a thread's own code passes through to honor a
// pending timer-driven preemption request. Real hardware can interrupt a
// thread at an arbitrary instruction; a goroutine cannot be paused from
// outside, so kcore's timer tick (Scheduler.timerElapsed) merely raises
// this flag when t's quantum has elapsed, and t's own calls into the core
// — Lock, Wait, WaitOrTimeout, Put, Get, GetOrTimeout all call CheckIn — or
// an explicit CheckIn call in a long-running loop, are what actually
// perform the switch. This is the one point where the translation departs
// from synchronous interrupt delivery; see DESIGN.md.
func (t *Thread) CheckIn() {
	if atomic.CompareAndSwapUint32(&t.preemptRequested, 1, 0) {
		t.Yield()
	}
}

// Join blocks until t has terminated.
func (t *Thread) Join() {
	t.joinMu.Lock()
	for !t.terminated {
		t.joinCV.Wait(t.joinMu)
	}
	t.joinMu.Unlock()
}

// Terminated reports whether t has finished running its body. It is racy
// outside of Join and is provided only for diagnostics.
func (t *Thread) Terminated() bool { return t.terminated }
