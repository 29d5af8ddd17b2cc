// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kcore

import "time"

// link is one doubly-linked list pointer pair together with the Node it is
// embedded in. A single Node carries several independent link pairs so it
// can belong to more than one queue at once, addressed by name instead of
// by base-class casts.
type link struct {
	next, prev *link
	owner      *Node
}

func (e *link) makeEmpty() { e.next, e.prev = e, e }
func (e *link) isEmpty() bool { return e.next == e }

func (e *link) insertAfter(p *link) {
	e.next = p.next
	e.prev = p
	e.next.prev = e
	e.prev.next = e
}

func (e *link) remove() {
	e.next.prev = e.prev
	e.prev.next = e.next
	e.next = e
	e.prev = e
}

// Node is the composite header every queueable kcore object (in practice,
// only *Thread) carries: one link pair per queue it may belong to. A link
// not currently threaded into its queue points at itself, the "detached"
// state.
type Node struct {
	wait    link
	mutex   link // reserved, currently unused by any queue
	sleep   link
	timeout time.Time
	self    *Thread
}

// initNode detaches all three links of n, the state a freshly constructed
// Thread's header starts in, and records the Thread it is embedded in so
// queue heads can be turned back into Threads.
func initNode(n *Node, self *Thread) {
	n.self = self
	n.wait.owner, n.mutex.owner, n.sleep.owner = n, n, n
	n.wait.makeEmpty()
	n.mutex.makeEmpty()
	n.sleep.makeEmpty()
}

// threadOf returns the Thread that embeds n.
func threadOf(n *Node) *Thread { return n.self }

// kind selects one of a Node's link pairs (wait or sleep; the reserved
// mutex pair has no kind) so List operations can be parameterized over
// which queue they address, rather than duplicated per queue or
// implemented via casts.
type kind int

const (
	waitKind kind = iota
	sleepKind
)

func (k kind) of(n *Node) *link {
	switch k {
	case sleepKind:
		return &n.sleep
	default:
		return &n.wait
	}
}

// List is one intrusive queue: the process-wide ready queue, the
// process-wide sleep queue, or a single sync object's per-object wait
// queue. All operations require the caller to already hold the owning
// Scheduler's interrupt gate.
type List struct {
	head link
	k    kind
}

func newList(k kind) *List {
	l := &List{k: k}
	l.head.owner = nil
	l.head.makeEmpty()
	return l
}

// NewWaitQueue returns an empty FIFO wait queue, as used by a Mutex or
// CondVar for its blocked waiters.
func NewWaitQueue() *List { return newList(waitKind) }

func newSleepQueue() *List { return newList(sleepKind) }

// Empty reports whether l currently has no members.
func (l *List) Empty() bool { return l.head.isEmpty() }

// Head returns the first element of l, or nil if l is empty. The running
// thread is always Head() of the ready queue.
func (l *List) Head() *Node {
	if l.head.isEmpty() {
		return nil
	}
	return l.head.next.owner
}

// Insert appends n to the tail of l (wait/mutex queue FIFO order).
func (l *List) Insert(n *Node) {
	e := l.k.of(n)
	if !e.isEmpty() {
		e.remove()
	}
	e.insertAfter(l.head.prev)
}

// insertSorted inserts n into l, a sleep queue, walking from the tail
// backwards until ordering by n.timeout ascending is preserved; ties are
// broken by insertion order (a new element with an equal timeout lands
// after existing equal-timeout elements).
func (l *List) insertSorted(n *Node) {
	e := l.k.of(n)
	if !e.isEmpty() {
		e.remove()
	}
	p := l.head.prev
	for p != &l.head && n.timeout.Before(p.owner.timeout) {
		p = p.prev
	}
	e.insertAfter(p)
}

// detachLink self-links e if it is currently part of some list, making
// removal idempotent regardless of which List object originally inserted
// it — a bare doubly-linked node needs no reference to its list head to be
// unlinked.
func detachLink(e *link) {
	if e.isEmpty() {
		return
	}
	e.remove()
}

// detachWait and detachSleep unlink n from whichever wait or sleep queue
// (respectively) it is currently on, without needing a reference to that
// queue's List.
func detachWait(n *Node)  { detachLink(&n.wait) }
func detachSleep(n *Node) { detachLink(&n.sleep) }

// Remove detaches n from l. Idempotent: removing an element already
// detached (from l or from any list) is a no-op.
func (l *List) Remove(n *Node) {
	e := l.k.of(n)
	if e.isEmpty() {
		return
	}
	e.remove()
}

// PopHead removes and returns the head of l, or nil if l is empty.
func (l *List) PopHead() *Node {
	n := l.Head()
	if n != nil {
		l.Remove(n)
	}
	return n
}
