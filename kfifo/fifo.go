// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package kfifo provides a fixed-capacity blocking byte queue built
// entirely on package kcore's public Mutex and CondVar, without reaching
// into any kcore internals.
package kfifo

import (
	"time"

	"kx.dev/x/rtkernel/kcore"
)

// BoundedFifo is a fixed-capacity circular buffer of bytes with blocking
// Put, blocking Get, and a timed GetOrTimeout. One slot of the backing
// array is always kept empty to disambiguate the full and empty states
// without a separate counter.
type BoundedFifo struct {
	mu     *kcore.Mutex
	putCV  *kcore.CondVar
	getCV  *kcore.CondVar
	buf    []byte
	lo, hi int // lo: next to read; hi: next to write
}

// New constructs a BoundedFifo of capacity C, scheduled through s.
func New(s *kcore.Scheduler, capacity int) *BoundedFifo {
	if capacity < 1 {
		panic("kfifo: capacity must be at least 1")
	}
	return &BoundedFifo{
		mu:    s.NewMutex(),
		putCV: s.NewCondVar(),
		getCV: s.NewCondVar(),
		buf:   make([]byte, capacity+1),
	}
}

func (f *BoundedFifo) full() bool  { return (f.hi+1)%len(f.buf) == f.lo }
func (f *BoundedFifo) empty() bool { return f.lo == f.hi }

// Put blocks until there is room for b, then appends it.
func (f *BoundedFifo) Put(b byte) {
	f.mu.Lock()
	for f.full() {
		f.putCV.Wait(f.mu)
	}
	f.buf[f.hi] = b
	f.hi = (f.hi + 1) % len(f.buf)
	f.getCV.Broadcast()
	f.mu.Unlock()
}

// Get blocks until an element is available, then removes and returns it.
func (f *BoundedFifo) Get() byte {
	f.mu.Lock()
	for f.empty() {
		f.getCV.Wait(f.mu)
	}
	b := f.buf[f.lo]
	f.lo = (f.lo + 1) % len(f.buf)
	f.putCV.Broadcast()
	f.mu.Unlock()
	return b
}

// GetOrTimeout is Get bounded by absDeadline, reporting whether it
// returned a value (true) or gave up on timeout (false). The lock must be
// released on the timeout path just as on the success path, or an early
// return on timeout would leave the mutex held.
func (f *BoundedFifo) GetOrTimeout(absDeadline time.Time) (b byte, ok bool) {
	f.mu.Lock()
	for f.empty() {
		if !f.getCV.WaitOrTimeout(f.mu, absDeadline) {
			f.mu.Unlock()
			return 0, false
		}
	}
	b = f.buf[f.lo]
	f.lo = (f.lo + 1) % len(f.buf)
	f.putCV.Broadcast()
	f.mu.Unlock()
	return b, true
}
