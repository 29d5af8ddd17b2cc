// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Binary kcore boots the preemptive thread-scheduler core and runs one of
// its demo workloads, the entry point equivalent of original_source/'s
// main() (main.cpp's int main() that constructs a cpu_load and a referee
// thread and starts the scheduler).
package main

import (
	"fmt"

	"kx.dev/x/rtkernel/demo/arena"
	"kx.dev/x/rtkernel/kcmd"
	"kx.dev/x/rtkernel/kcore"
)

func main() {
	root := kcmd.NewRoot("kcore")
	root.Commands = []*kcmd.Command{
		{
			Name:  "arena",
			Short: "run the two-player arena demo to completion",
			Runner: kcmd.RunnerFunc(func(env *kcmd.Env, sched *kcore.Scheduler, args []string) error {
				a := arena.NewArena(sched, env.Stdout)
				script := []byte{
					arena.EventP0Left, arena.EventP1Right,
					arena.EventP0Drop, arena.EventP1Drop,
				}
				ref := arena.NewReferee(sched, a, 6, 2, script)
				refDone := false
				refThread := sched.NewThread("referee", func(t *kcore.Thread) {
					ref.Run(t)
					refDone = true
				})
				refThread.Start()
				// Stay runnable until the referee is done: while the players
				// sleep in GetOrTimeout and the referee waits for events, an
				// empty ready queue would be a deadlock.
				self := sched.Current()
				for !refDone {
					self.CheckIn()
				}
				refThread.Join()
				fmt.Fprintln(env.Stdout, "arena: done")
				return nil
			}),
		},
	}
	root.Main()
}
