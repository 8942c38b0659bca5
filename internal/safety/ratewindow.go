// Package safety gates externally visible actions behind sliding-window rate
// limits and an error-rate circuit breaker.
package safety

import "time"

// RateWindow is a sliding-window rate limiter: an ordered list of action
// timestamps pruned to the window length before every read. Not safe for
// concurrent use on its own; the Monitor serialises access.
type RateWindow struct {
	maxActions int
	window     time.Duration
	timestamps []time.Time
}

// NewRateWindow creates a window allowing maxActions per window duration.
func NewRateWindow(maxActions int, window time.Duration) *RateWindow {
	return &RateWindow{maxActions: maxActions, window: window}
}

func (w *RateWindow) prune(now time.Time) {
	cutoff := now.Add(-w.window)
	kept := w.timestamps[:0]
	for _, t := range w.timestamps {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	w.timestamps = kept
}

// CanAct reports whether the window has capacity at time now.
func (w *RateWindow) CanAct(now time.Time) bool {
	w.prune(now)
	return len(w.timestamps) < w.maxActions
}

// Record consumes one slot.
func (w *RateWindow) Record(now time.Time) {
	w.timestamps = append(w.timestamps, now)
}

// Remaining returns the number of slots left in the window.
func (w *RateWindow) Remaining(now time.Time) int {
	w.prune(now)
	if r := w.maxActions - len(w.timestamps); r > 0 {
		return r
	}
	return 0
}
