// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kcore

// Context realizes a save/restore context switch primitive. On bare metal,
// save pushes an interrupt-shaped frame onto the current stack and calls a
// handler that hands the frame's saved stack pointer to the scheduler;
// restore loads a previously saved stack pointer and resumes execution
// just past the matching save. Assembly has no analogue here: a kcore
// Thread is backed by one goroutine parked on a per-thread baton channel,
// and save/restore become "run handler, then block on my baton" / "unblock
// some other thread's baton". Exactly one thread's goroutine is ever
// unblocked at a time, which is what gives the scheduler its single-CPU,
// single-current-thread semantics without needing real stack surgery.
//
// Both operations require the caller to already hold the Scheduler's
// interrupt gate; neither one releases it. The convention mirrors
// hardware: a thread's synthetic frame is built with interrupts enabled,
// so a thread's very first restore (run by the trampoline in thread.go)
// releases the gate itself, while every other resumption leaves that to
// whichever sync primitive (Mutex.Lock, CondVar.Wait, ...) originally
// called save.

// saveContext runs handler — which relinks t wherever the suspend puts it
// (a wait or sleep queue, or the ready queue's tail for Yield) and ends by
// calling resumeNext — and then blocks the calling goroutine until
// a future resumeNext restores t.
func (s *Scheduler) saveContext(t *Thread, handler func()) {
	handler()
	<-t.baton
}

// restore wakes t's goroutine. t.baton is buffered(1), so restore never
// blocks: at most one outstanding wakeup can ever be pending for a given
// thread, since a thread is never resumed a second time before it
// suspends again.
func restore(t *Thread) {
	t.baton <- struct{}{}
}
