// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kcore

import (
	"fmt"
	"testing"
)

// testFatal builds a FatalFunc safe to invoke from any goroutine: t.Fatalf
// may only be called from the goroutine running the test function itself,
// but the scheduler's fatal path can fire from a worker thread's goroutine,
// so this records the failure with the goroutine-safe t.Errorf and then
// panics, matching FatalFunc's "must not return" contract.
func testFatal(t *testing.T) FatalFunc {
	return func(format string, args ...interface{}) {
		msg := fmt.Sprintf(format, args...)
		t.Errorf("scheduler fatal: %s", msg)
		panic("kcore: " + msg)
	}
}
