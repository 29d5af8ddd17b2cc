// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package arena

import (
	"kx.dev/x/rtkernel/kcore"
	"kx.dev/x/rtkernel/kfifo"
)

// fifoCapacity bounds every queue in the arena, standing in for
// main.cpp's unbounded fifo (the distilled core only specifies a
// fixed-capacity BoundedFifo, so the demo picks a capacity generous enough
// that normal play never blocks a producer on it).
const fifoCapacity = 16

// Referee is the kcore.Thread that owns the shared events queue and both
// players' command queues, the direct analogue of main.cpp's referee
// class: it starts the input source and the two players, then relays
// events to commands and adjudicates win/lose acknowledgements.
type Referee struct {
	arena    *Arena
	events   *kfifo.BoundedFifo
	toPlayer [2]*kfifo.BoundedFifo
	players  [2]*Player
	input    *InputSource

	sched        *kcore.Scheduler
	playerRounds int
}

// NewReferee constructs a Referee and its two Players over arena, with
// each player's falling block reaching the bottom after height steps.
// inputEvents is the scripted sequence of player commands InputSource will
// replay, standing in for main.cpp's keyboard-driven input_controller.
// playerRounds caps how many fresh-board rounds the demo plays before Run
// returns, since (unlike main.cpp's real keyboard-driven game) a scripted
// InputSource eventually runs dry and the demo needs a defined stopping
// point.
func NewReferee(s *kcore.Scheduler, arena *Arena, height, playerRounds int, inputEvents []byte) *Referee {
	r := &Referee{
		arena:        arena,
		events:       kfifo.New(s, fifoCapacity),
		toPlayer:     [2]*kfifo.BoundedFifo{kfifo.New(s, fifoCapacity), kfifo.New(s, fifoCapacity)},
		sched:        s,
		playerRounds: playerRounds,
	}
	r.players[0] = NewPlayer(0, arena, r.toPlayer[0], r.events, s.Clock(), height)
	r.players[1] = NewPlayer(1, arena, r.toPlayer[1], r.events, s.Clock(), height)
	r.input = NewInputSource(r.events, inputEvents)
	return r
}

// Run is r's kcore.Thread body: start the input source and both players,
// then relay events to the matching player's command queue until
// playerRounds rounds have concluded, mirroring main.cpp's referee::run
// switch statement.
func (r *Referee) Run(t *kcore.Thread) {
	r.sched.NewThread("input", r.input.Run).Start()
	p0 := r.sched.NewThread("player0", r.players[0].Run)
	p1 := r.sched.NewThread("player1", r.players[1].Run)
	p0.Start()
	p1.Start()

	rounds := 0
	for rounds < r.playerRounds {
		event := r.events.Get()
		switch event {
		case EventP0Left:
			r.toPlayer[0].Put(CmdLeft)
		case EventP1Left:
			r.toPlayer[1].Put(CmdLeft)
		case EventP0Right:
			r.toPlayer[0].Put(CmdRight)
		case EventP1Right:
			r.toPlayer[1].Put(CmdRight)
		case EventP0Drop, EventP1Drop:
			// Drop acceleration is a player-local concern in this
			// simplified demo (no accel state threaded through the
			// event queue); acknowledged but otherwise a no-op.
		case EventP0Finished, EventP1Finished:
			winner, loser := 0, 1
			if event == EventP1Finished {
				winner, loser = 1, 0
			}
			r.toPlayer[winner].Put(CmdWin)
			r.toPlayer[loser].Put(CmdLose)
			acks := 0
			for acks < 2 {
				if r.events.Get() == EventWinLoseAck {
					acks++
				}
			}
			rounds++
		}
	}
	r.arena.logf("referee: match complete after %d rounds", rounds)
}
