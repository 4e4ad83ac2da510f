package ratelimiter

import (
	"testing"
	"time"
)

func TestTokenBucketAllowsBurstUpToCapacity(t *testing.T) {
	tb := NewTokenBucket(1, 3)

	for i := 0; i < 3; i++ {
		if !tb.Allow() {
			t.Fatalf("request %d denied within burst capacity", i)
		}
	}
	if tb.Allow() {
		t.Fatal("request allowed with an empty bucket")
	}
}

func TestTokenBucketRefills(t *testing.T) {
	tb := NewTokenBucket(100, 1)

	if !tb.Allow() {
		t.Fatal("first request denied")
	}
	if tb.Allow() {
		t.Fatal("second request allowed before refill")
	}

	time.Sleep(20 * time.Millisecond) // 100/s refills one token well within this.
	if !tb.Allow() {
		t.Fatal("request denied after refill interval")
	}
}

func TestFixedWindowCounterEnforcesLimit(t *testing.T) {
	fwc := NewFixedWindowCounter(2, time.Minute)

	if !fwc.Allow() || !fwc.Allow() {
		t.Fatal("requests denied under the limit")
	}
	if fwc.Allow() {
		t.Fatal("request allowed over the window limit")
	}
}

func TestFixedWindowCounterResets(t *testing.T) {
	fwc := NewFixedWindowCounter(1, 10*time.Millisecond)

	if !fwc.Allow() {
		t.Fatal("first request denied")
	}
	if fwc.Allow() {
		t.Fatal("second request allowed in the same window")
	}

	time.Sleep(20 * time.Millisecond)
	if !fwc.Allow() {
		t.Fatal("request denied after the window rolled over")
	}
}
