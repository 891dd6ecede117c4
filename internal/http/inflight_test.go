package http

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestInFlightTrackerCount(t *testing.T) {
	tracker := &InFlightTracker{}

	tracker.Increment()
	tracker.Increment()
	if got := tracker.Count(); got != 2 {
		t.Fatalf("want 2 in flight, got %d", got)
	}
	tracker.Decrement()
	if got := tracker.Count(); got != 1 {
		t.Fatalf("want 1 in flight, got %d", got)
	}
}

func TestInFlightTrackerConcurrent(t *testing.T) {
	tracker := &InFlightTracker{}
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.Increment()
			tracker.Decrement()
		}()
	}
	wg.Wait()
	if got := tracker.Count(); got != 0 {
		t.Fatalf("want 0 after balanced increments, got %d", got)
	}
}

func TestWaitForZeroReturnsWhenDrained(t *testing.T) {
	tracker := &InFlightTracker{}
	tracker.Increment()

	go func() {
		time.Sleep(20 * time.Millisecond)
		tracker.Decrement()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := tracker.WaitForZero(ctx, 5*time.Millisecond); err != nil {
		t.Fatalf("expected drain before deadline: %v", err)
	}
}

func TestWaitForZeroTimesOut(t *testing.T) {
	tracker := &InFlightTracker{}
	tracker.Increment()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if err := tracker.WaitForZero(ctx, 5*time.Millisecond); err == nil {
		t.Fatal("want context deadline error while requests remain")
	}
}
