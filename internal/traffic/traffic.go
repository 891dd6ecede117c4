// Package traffic tracks recent request outcomes in sliding windows.
// The health handler derives overloaded (rate-limit denials) and degraded
// (simulated-fallback rate) states from it.
package traffic

import (
	"sync"
	"time"
)

// Outcome classifies how a weather request was served.
type Outcome int

const (
	// OutcomeLive means the upstream API (or fresh cache) served the request.
	OutcomeLive Outcome = iota
	// OutcomeFallback means stale cache or simulated data served the request.
	OutcomeFallback
	// OutcomeDenied means the rate limiter rejected the request (429).
	OutcomeDenied
)

// maxAge bounds how long outcomes are retained; windows larger than this
// undercount.
const maxAge = 5 * time.Minute

type event struct {
	at      time.Time
	outcome Outcome
}

// Tracker maintains a sliding window of outcome events.
type Tracker struct {
	mu     sync.Mutex
	events []event
}

var defaultTracker Tracker

// RecordLive records an upstream-served request in the default tracker.
func RecordLive() { defaultTracker.Record(OutcomeLive) }

// RecordFallback records a fallback-served request in the default tracker.
func RecordFallback() { defaultTracker.Record(OutcomeFallback) }

// RecordDenied records a rate-limit denial in the default tracker.
func RecordDenied() { defaultTracker.Record(OutcomeDenied) }

// FallbackRate returns (fallbacks, total) within the window from the default
// tracker. Total excludes denials.
func FallbackRate(window time.Duration) (fallbacks, total int) {
	return defaultTracker.FallbackRate(window)
}

// RequestCount returns all outcomes within the window from the default tracker.
func RequestCount(window time.Duration) int { return defaultTracker.RequestCount(window) }

// DenialCount returns denials within the window from the default tracker.
func DenialCount(window time.Duration) int { return defaultTracker.DenialCount(window) }

// Reset clears the default tracker. For tests only.
func Reset() { defaultTracker.Reset() }

// Record appends an outcome at the current time and prunes aged entries.
func (t *Tracker) Record(o Outcome) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now()
	t.events = append(t.events, event{at: now, outcome: o})
	t.pruneLocked(now)
}

// FallbackRate returns (fallbacks, total) within the window, where total is
// lives + fallbacks. Denials are excluded: a denied request says nothing
// about upstream health.
func (t *Tracker) FallbackRate(window time.Duration) (fallbacks, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := time.Now().Add(-window)
	for _, e := range t.events {
		if e.at.Before(cutoff) {
			continue
		}
		switch e.outcome {
		case OutcomeLive:
			total++
		case OutcomeFallback:
			fallbacks++
			total++
		}
	}
	return fallbacks, total
}

// RequestCount returns the number of outcomes of any kind within the window.
func (t *Tracker) RequestCount(window time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.countLocked(window, nil)
}

// DenialCount returns the number of denials within the window.
func (t *Tracker) DenialCount(window time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	denied := OutcomeDenied
	return t.countLocked(window, &denied)
}

// Reset clears all recorded outcomes.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = nil
}

func (t *Tracker) countLocked(window time.Duration, only *Outcome) int {
	cutoff := time.Now().Add(-window)
	n := 0
	for _, e := range t.events {
		if e.at.Before(cutoff) {
			continue
		}
		if only == nil || e.outcome == *only {
			n++
		}
	}
	return n
}

// pruneLocked drops events older than maxAge. Events are appended in time
// order, so the prefix is the aged part.
func (t *Tracker) pruneLocked(now time.Time) {
	cutoff := now.Add(-maxAge)
	i := 0
	for ; i < len(t.events) && t.events[i].at.Before(cutoff); i++ {
	}
	if i > 0 {
		t.events = append(t.events[:0], t.events[i:]...)
	}
}
