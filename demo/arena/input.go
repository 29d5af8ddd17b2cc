// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package arena

import (
	"time"

	"kx.dev/x/rtkernel/kcore"
	"kx.dev/x/rtkernel/kfifo"
)

// InputSource replays a scripted sequence of event bytes into the
// referee's events queue, standing in for a real keyboard driver: the
// producer/consumer shape is kept and only the byte source is synthetic.
type InputSource struct {
	events *kfifo.BoundedFifo
	script []byte
}

// NewInputSource constructs an InputSource that will Put each byte of
// script onto events, in order, yielding after each one.
func NewInputSource(events *kfifo.BoundedFifo, script []byte) *InputSource {
	return &InputSource{events: events, script: script}
}

// turnInterval is a keystroke spacing for synthetic input. Run does not
// wait on it: events are delivered back to back, with only a Yield between
// them.
const turnInterval = 6 * time.Millisecond

// Run is in's kcore.Thread body: deliver the scripted events one after
// another, yielding after each Put, then terminate — unlike main.cpp's
// input_controller, which loops on a real keyboard forever, a scripted
// source has a defined end so the demo as a whole can terminate.
func (in *InputSource) Run(t *kcore.Thread) {
	for _, event := range in.script {
		in.events.Put(event)
		t.Yield()
	}
}
