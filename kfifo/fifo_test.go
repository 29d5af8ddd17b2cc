// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kfifo

import (
	"testing"
	"time"

	"kx.dev/x/rtkernel/kcore"
)

func testFatal(t *testing.T) kcore.FatalFunc {
	return func(format string, args ...interface{}) {
		t.Errorf("scheduler fatal: "+format, args...)
		panic("kfifo: scheduler fatal")
	}
}

// TestFifoFIFOOrder checks that bytes come back out in the order they
// went in, single producer/single consumer.
func TestFifoFIFOOrder(t *testing.T) {
	sched := kcore.NewProductionScheduler(5*time.Millisecond, testFatal(t))
	done := make(chan struct{})
	var got []byte

	go sched.Setup(func(primordial *kcore.Thread) {
		f := New(sched, 4)
		const want = "hello, kcore"

		consumer := sched.NewThread("consumer", func(self *kcore.Thread) {
			for i := 0; i < len(want); i++ {
				got = append(got, f.Get())
			}
		})
		consumer.Start()

		producer := sched.NewThread("producer", func(self *kcore.Thread) {
			for i := 0; i < len(want); i++ {
				f.Put(want[i])
			}
		})
		producer.Start()

		consumer.Join()
		producer.Join()
		close(done)
	})

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out")
	}
	if string(got) != "hello, kcore" {
		t.Fatalf("got %q, want %q", got, "hello, kcore")
	}
}

// TestFifoBoundedCapacityBlocksProducer exercises the bounded nature of the
// queue: a producer filling it past capacity must block until a consumer
// drains an element, the same property nsync/cv_test.go's bounded queue
// test exercises with its own producerN/consumerN goroutines.
func TestFifoBoundedCapacityBlocksProducer(t *testing.T) {
	sched := kcore.NewProductionScheduler(5*time.Millisecond, testFatal(t))
	done := make(chan struct{})
	const capacity = 3
	const total = 50

	go sched.Setup(func(primordial *kcore.Thread) {
		f := New(sched, capacity)
		var produced, consumed int
		finishMu := sched.NewMutex()
		finishCV := sched.NewCondVar()
		finished := 0

		sched.NewThread("producer", func(self *kcore.Thread) {
			for i := 0; i < total; i++ {
				f.Put(byte(i))
				produced++
			}
			finishMu.Lock()
			finished++
			finishCV.Broadcast()
			finishMu.Unlock()
		}).Start()

		sched.NewThread("consumer", func(self *kcore.Thread) {
			for i := 0; i < total; i++ {
				f.Get()
				consumed++
			}
			finishMu.Lock()
			finished++
			finishCV.Broadcast()
			finishMu.Unlock()
		}).Start()

		finishMu.Lock()
		for finished != 2 {
			finishCV.Wait(finishMu)
		}
		finishMu.Unlock()

		if produced != total || consumed != total {
			t.Errorf("produced = %d, consumed = %d, want %d each", produced, consumed, total)
		}
		close(done)
	})

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out")
	}
}

// TestFifoGetOrTimeoutDeterministic is the real-clock counterpart of
// kcore's fake-clock timeout tests: a consumer calling GetOrTimeout on a queue nothing ever fills must
// report false once its deadline passes, and must not leave the internal
// mutex held (verified indirectly: a subsequent Put/Get pair must still
// succeed).
func TestFifoGetOrTimeoutDeterministic(t *testing.T) {
	sched := kcore.NewProductionScheduler(1*time.Millisecond, testFatal(t))
	done := make(chan struct{})
	var timedOut bool
	var recovered byte
	var recoveredOk bool

	go sched.Setup(func(primordial *kcore.Thread) {
		f := New(sched, 2)

		finished := false
		consumer := sched.NewThread("consumer", func(self *kcore.Thread) {
			deadline := sched.Clock().Now().Add(5 * time.Millisecond)
			_, ok := f.GetOrTimeout(deadline)
			timedOut = !ok
			finished = true
		})
		consumer.Start()
		// Stay runnable while the consumer sleeps: with every thread
		// blocked the ready queue would be empty, which the scheduler
		// treats as a deadlock even though a timed sleeper is pending.
		for !finished {
			primordial.CheckIn()
		}
		consumer.Join()

		// The mutex must have been released on the timeout path: Put/Get
		// must still work afterward.
		f.Put(42)
		recovered, recoveredOk = f.GetOrTimeout(sched.Clock().Now().Add(time.Second))
		close(done)
	})

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for GetOrTimeout")
	}
	if !timedOut {
		t.Fatalf("GetOrTimeout() reported a value, want a timeout")
	}
	if !recoveredOk || recovered != 42 {
		t.Fatalf("recovery Put/Get after timeout = (%d, %v), want (42, true)", recovered, recoveredOk)
	}
}

// TestFifoGetOrTimeoutSucceedsBeforeDeadline checks the other half of
// GetOrTimeout: a consumer parked on an empty queue must receive the value
// and report true when a Put arrives well before the deadline, not just
// time out.
func TestFifoGetOrTimeoutSucceedsBeforeDeadline(t *testing.T) {
	sched := kcore.NewProductionScheduler(5*time.Millisecond, testFatal(t))
	done := make(chan struct{})
	var got byte
	var ok bool

	go sched.Setup(func(primordial *kcore.Thread) {
		f := New(sched, 2)

		consumer := sched.NewThread("consumer", func(self *kcore.Thread) {
			deadline := time.Now().Add(2 * time.Second)
			got, ok = f.GetOrTimeout(deadline)
		})
		consumer.Start()

		// Yield hands the CPU to consumer, which finds the queue empty
		// and parks on getCV before returning control here.
		primordial.Yield()

		f.Put(99)
		consumer.Join()
		close(done)
	})

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out")
	}
	if !ok || got != 99 {
		t.Fatalf("GetOrTimeout() = (%d, %v), want (99, true)", got, ok)
	}
}
