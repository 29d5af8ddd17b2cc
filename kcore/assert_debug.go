// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build kcore_debug

package kcore

// DebugAssertHeld panics unless g is currently held. It is compiled in only
// under the kcore_debug build tag, keeping the non-debug path branch-free.
func DebugAssertHeld(g *Gate) {
	if !g.tryHeld() {
		panic("kcore: interrupt gate not held at suspend point")
	}
}

// debugSetOwner records m's current owner (nil when unlocked). Compiled in
// only under kcore_debug; the release build tracks no ownership at all.
func (m *Mutex) debugSetOwner(t *Thread) { m.owner = t }

// debugCheckOwner panics if the calling thread is not m's recorded owner,
// catching an Unlock from the wrong thread — a programming error left
// undetected outside this build tag.
func (m *Mutex) debugCheckOwner() {
	if cur := m.sched.current; m.owner != cur {
		panic("kcore: Unlock by a thread that does not hold the mutex")
	}
}
