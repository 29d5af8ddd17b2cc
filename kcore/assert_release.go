// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !kcore_debug

package kcore

// DebugAssertHeld is a no-op outside the kcore_debug build.
func DebugAssertHeld(g *Gate) {}

// debugSetOwner and debugCheckOwner are no-ops outside the kcore_debug
// build: ownership is not tracked at all in release builds.
func (m *Mutex) debugSetOwner(t *Thread) {}
func (m *Mutex) debugCheckOwner()        {}
