// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kcore

import (
	"testing"
	"time"
)

func newTestNode() *Node {
	n := &Node{}
	initNode(n, nil)
	return n
}

func TestListFIFOOrder(t *testing.T) {
	l := NewWaitQueue()
	if !l.Empty() {
		t.Fatalf("new list should be empty")
	}
	a, b, c := newTestNode(), newTestNode(), newTestNode()
	l.Insert(a)
	l.Insert(b)
	l.Insert(c)

	if got := l.PopHead(); got != a {
		t.Fatalf("PopHead() = %p, want a %p", got, a)
	}
	if got := l.PopHead(); got != b {
		t.Fatalf("PopHead() = %p, want b %p", got, b)
	}
	if got := l.PopHead(); got != c {
		t.Fatalf("PopHead() = %p, want c %p", got, c)
	}
	if !l.Empty() {
		t.Fatalf("list should be empty after draining")
	}
	if got := l.PopHead(); got != nil {
		t.Fatalf("PopHead() on empty list = %v, want nil", got)
	}
}

func TestListRemoveIsIdempotent(t *testing.T) {
	l := NewWaitQueue()
	a := newTestNode()
	l.Insert(a)
	l.Remove(a)
	l.Remove(a) // must not panic or corrupt state
	if !l.Empty() {
		t.Fatalf("list should be empty after removing its only element")
	}
}

func TestSleepQueueOrderedByTimeoutWithFIFOTieBreak(t *testing.T) {
	l := newSleepQueue()
	base := time.Now()
	late := newTestNode()
	late.timeout = base.Add(30 * time.Millisecond)
	earlyA := newTestNode()
	earlyA.timeout = base.Add(10 * time.Millisecond)
	earlyB := newTestNode() // same timeout as earlyA, inserted after
	earlyB.timeout = base.Add(10 * time.Millisecond)
	mid := newTestNode()
	mid.timeout = base.Add(20 * time.Millisecond)

	l.insertSorted(late)
	l.insertSorted(earlyA)
	l.insertSorted(mid)
	l.insertSorted(earlyB)

	want := []*Node{earlyA, earlyB, mid, late}
	for i, w := range want {
		got := l.PopHead()
		if got != w {
			t.Fatalf("pop %d: got %p, want %p", i, got, w)
		}
	}
}

func TestDetachSleepAndDetachWaitAreIndependent(t *testing.T) {
	wait := NewWaitQueue()
	sleep := newSleepQueue()
	n := newTestNode()
	n.timeout = time.Now()
	wait.Insert(n)
	sleep.insertSorted(n)

	detachSleep(n)
	if sleep.Head() != nil {
		t.Fatalf("node still present on sleep queue after detachSleep")
	}
	if wait.Head() != n {
		t.Fatalf("detachSleep should not affect wait-queue membership")
	}

	detachWait(n)
	if wait.Head() != nil {
		t.Fatalf("node still present on wait queue after detachWait")
	}
}
