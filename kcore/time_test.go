// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kcore

import (
	"testing"
	"time"
)

func TestLess(t *testing.T) {
	now := time.Now()
	later := now.Add(time.Second)
	if !Less(now, later) {
		t.Fatalf("Less(now, later) = false, want true")
	}
	if Less(later, now) {
		t.Fatalf("Less(later, now) = true, want false")
	}
}

func TestAddSaturatesAtInfinities(t *testing.T) {
	if got := Add(PosInfinity, time.Hour); got != PosInfinity {
		t.Fatalf("Add(PosInfinity, 1h) = %v, want PosInfinity", got)
	}
	if got := Add(NegInfinity, -time.Hour); got != NegInfinity {
		t.Fatalf("Add(NegInfinity, -1h) = %v, want NegInfinity", got)
	}
	now := time.Now()
	if got := Add(now, time.Second); !got.Equal(now.Add(time.Second)) {
		t.Fatalf("Add(now, 1s) = %v, want %v", got, now.Add(time.Second))
	}
}

func TestSubSaturatesAtInfinities(t *testing.T) {
	now := time.Now()
	if got := Sub(PosInfinity, now); got != time.Duration(1<<63-1) {
		t.Fatalf("Sub(PosInfinity, now) = %v, want max duration", got)
	}
	if got := Sub(now, PosInfinity); got >= 0 {
		t.Fatalf("Sub(now, PosInfinity) = %v, want a very negative duration", got)
	}
}

func TestFrequencyToDuration(t *testing.T) {
	if got, want := FrequencyToDuration(1000), time.Millisecond; got != want {
		t.Fatalf("FrequencyToDuration(1000) = %v, want %v", got, want)
	}
}

func TestSecondsToDuration(t *testing.T) {
	if got, want := SecondsToDuration(0.5), 500*time.Millisecond; got != want {
		t.Fatalf("SecondsToDuration(0.5) = %v, want %v", got, want)
	}
}
