// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package arena implements the coordination pattern of a falling-block
// arena game: two player threads racing a falling block, a referee thread
// serializing game state and detecting a win, and an input collaborator
// feeding commands. Video/font rendering and a real PS/2 keyboard driver
// are out of scope and stay external; what's kept here is the
// thread/mutex/condvar/fifo choreography, with the screen replaced by a
// textual transcript (io.Writer) and the keyboard replaced by
// InputSource's synthetic byte feed.
package arena

import (
	"fmt"
	"io"
	"time"

	"kx.dev/x/rtkernel/kcore"
	"kx.dev/x/rtkernel/kfifo"
)

// Command bytes sent from the Referee to a Player's command queue,
// corresponding to main.cpp's LEFT_CMD/RIGHT_CMD/DROP_CMD/WIN_CMD/LOSE_CMD.
const (
	CmdLeft byte = iota
	CmdRight
	CmdDrop
	CmdWin
	CmdLose
)

// Event bytes sent from a Player or InputSource to the Referee's event
// queue, corresponding to main.cpp's PLAYERn_*_EVENT/WIN_LOSE_ACK_EVENT.
const (
	EventP0Left byte = iota
	EventP1Left
	EventP0Drop
	EventP1Drop
	EventP0Right
	EventP1Right
	EventP0Finished
	EventP1Finished
	EventWinLoseAck
)

// Arena holds the shared scoreboard and transcript, protected by a single
// kcore.Mutex the way main.cpp's #ifdef SOLUTION seq mutex serializes
// drawing calls from both player threads.
type Arena struct {
	mu  *kcore.Mutex
	w   io.Writer
	row [2]int // current vertical position of each player's falling block
}

// NewArena constructs an Arena whose transcript is written to w.
func NewArena(s *kcore.Scheduler, w io.Writer) *Arena {
	return &Arena{mu: s.NewMutex(), w: w}
}

// logf serializes a transcript line the way main.cpp serializes drawing
// calls under its seq mutex, so concurrent Player threads never interleave
// output mid-line.
func (a *Arena) logf(format string, args ...interface{}) {
	a.mu.Lock()
	fmt.Fprintf(a.w, format+"\n", args...)
	a.mu.Unlock()
}

// Player is a kcore.Thread racing a falling block down its own column,
// the direct analogue of main.cpp's player class with video replaced by
// Arena.logf.
type Player struct {
	id       int
	arena    *Arena
	commands *kfifo.BoundedFifo // Referee -> Player
	events   *kfifo.BoundedFifo // Player -> Referee
	clock    kcore.Source

	height int // rows until the block reaches the bottom
	score  int
}

// NewPlayer constructs a Player. height bounds how many downward steps a
// block takes before it locks in place, replacing main.cpp's BOARD_HEIGHT.
func NewPlayer(id int, arena *Arena, commands, events *kfifo.BoundedFifo, clock kcore.Source, height int) *Player {
	return &Player{id: id, arena: arena, commands: commands, events: events, clock: clock, height: height}
}

// finishedEvent maps this player's id to its EventP*Finished constant, the
// Go equivalent of main.cpp's "_id == 0" ternaries scattered through
// player::run/referee::run.
func (p *Player) finishedEvent() byte {
	if p.id == 0 {
		return EventP0Finished
	}
	return EventP1Finished
}

// Run is p's kcore.Thread body: race one block to the bottom per
// fresh-block round, relaying a win/lose acknowledgement to the Referee
// and looping, mirroring main.cpp's "fresh_board"/"new_block" goto loops
// without the goto (Go structures the same state machine as nested for
// loops instead).
func (p *Player) Run(t *kcore.Thread) {
	for {
		p.score = p.playRound(t)
		if p.score < 0 {
			return // not taken: playRound never returns a negative score, so Run does not return
		}
	}
}

// playRound runs one fresh-block round to its conclusion (a win or lose
// command, either while the block is falling or after it reaches the
// bottom), returning the player's score after applying this round's
// outcome. It never returns a negative value.
func (p *Player) playRound(t *kcore.Thread) int {
	row := 0
	speed := p.stepInterval()
	last := p.clock.Now()
	for {
		deadline := kcore.Add(last, speed)
		cmd, gotCmd := p.commands.GetOrTimeout(deadline)
		if gotCmd {
			switch cmd {
			case CmdWin, CmdLose:
				p.events.Put(EventWinLoseAck)
				if cmd == CmdWin {
					p.score++
				}
				p.arena.logf("player %d: round over, score=%d", p.id, p.score)
				return p.score
			case CmdLeft, CmdRight:
				p.arena.logf("player %d: shift (row=%d)", p.id, row)
			}
			continue
		}
		// Timed out: the block falls one row, same as main.cpp's else
		// branch in player::run.
		row++
		p.arena.row[p.id] = row
		if row < p.height {
			last = deadline
			continue
		}
		// Block reached the bottom: tell the referee, then wait for the
		// win/lose verdict exactly as main.cpp's "tower is finished"
		// branch does with an unconditional get().
		p.events.Put(p.finishedEvent())
		for {
			cmd := p.commands.Get()
			if cmd == CmdWin || cmd == CmdLose {
				p.events.Put(EventWinLoseAck)
				if cmd == CmdWin {
					p.score++
				}
				p.arena.logf("player %d: round over, score=%d", p.id, p.score)
				return p.score
			}
		}
	}
}

func (p *Player) stepInterval() time.Duration { return 8 * time.Millisecond }
