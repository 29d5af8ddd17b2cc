// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package klog is the ambient structured-severity logger used by kcmd. Its package-level function surface (Info/Infof,
// Error/Errorf, Fatal/Fatalf, V) is backed by github.com/cosmosnicolaou/llog,
// the same glog-derived logging core vlog itself wraps, rather than by a
// hand-rolled standard-library shim.
package klog

import (
	"sync"

	"github.com/cosmosnicolaou/llog"
)

const stackSkip = 1

var (
	mu   sync.Mutex
	inst = llog.NewLogger("rtkernel", stackSkip)
)

// Level is a verbosity threshold for V-gated logging, the same type
// llog.Level is parameterized over.
type Level llog.Level

// ConfigureVerbosity sets the threshold above which V(level) reports
// false. The default is 0, so only V(0) (always true) gates fire until
// configured.
func ConfigureVerbosity(level Level) {
	mu.Lock()
	defer mu.Unlock()
	inst.SetV(llog.Level(level))
}

// V reports whether logging at the given verbosity level is currently
// enabled, letting callers skip expensive log-argument construction
// entirely when not logging.
func V(level Level) bool {
	return inst.V(llog.Level(level))
}

// Info logs to the INFO log, formatting arguments as with fmt.Print.
func Info(args ...interface{}) { inst.Print(llog.InfoLog, args...) }

// Infof logs to the INFO log, formatting as with fmt.Printf.
func Infof(format string, args ...interface{}) { inst.Printf(llog.InfoLog, format, args...) }

// Error logs to the ERROR and INFO logs, formatting arguments as with
// fmt.Print.
func Error(args ...interface{}) { inst.Print(llog.ErrorLog, args...) }

// Errorf logs to the ERROR and INFO logs, formatting as with fmt.Printf.
func Errorf(format string, args ...interface{}) { inst.Printf(llog.ErrorLog, format, args...) }

// Fatal logs to the FATAL, ERROR and INFO logs, including a stack trace of
// all running goroutines, then terminates the process. This is the sink
// kcore's Scheduler uses on deadlock (see kcmd's boot wiring).
func Fatal(args ...interface{}) { inst.Print(llog.FatalLog, args...) }

// Fatalf is Fatal, formatting as with fmt.Printf. Its signature matches
// kcore.FatalFunc exactly, so it can be passed directly as a scheduler's
// fatal sink.
func Fatalf(format string, args ...interface{}) { inst.Printf(llog.FatalLog, format, args...) }

// Flush flushes all pending log I/O.
func Flush() { inst.Flush() }
