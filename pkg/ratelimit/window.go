// Package ratelimit implements the pacing state for the Discogs request
// scheduler. Discogs allows 60 authenticated requests per minute; the
// scheduler stays one request under that ceiling and spaces dispatches at
// least one second apart so it never bursts into a 429.
package ratelimit

import (
	"time"
)

// Pacing limits for the Discogs API.
const (
	// RequestsPerMinute is the nominal Discogs ceiling for authenticated
	// requests.
	RequestsPerMinute = 60

	// SafeRequestsPerMinute stays one request under the nominal ceiling.
	SafeRequestsPerMinute = RequestsPerMinute - 1

	// MinRequestInterval is the minimum spacing between two dispatches.
	MinRequestInterval = time.Minute / RequestsPerMinute

	// WindowLength is the rolling accounting period for the per-minute cap.
	WindowLength = time.Minute

	// RolloverBuffer is added when waiting for a window rollover so the
	// first request of the new window lands clearly inside it.
	RolloverBuffer = 50 * time.Millisecond
)

// Window tracks dispatches inside the current rolling accounting period.
// It is owned exclusively by the scheduler's worker loop and is not safe
// for concurrent use.
type Window struct {
	// Dispatched is the number of requests dispatched since Start.
	Dispatched int

	// Start is when the current window opened.
	Start time.Time

	// LastDispatch is when the most recent request was dispatched.
	LastDispatch time.Time

	// Limit is the per-window dispatch cap.
	Limit int

	// Length is the window duration.
	Length time.Duration

	// MinInterval is the minimum spacing between dispatches.
	MinInterval time.Duration
}

// NewWindow returns a window opened at now with the default Discogs limits.
func NewWindow(now time.Time) *Window {
	return &Window{
		Start:       now,
		Limit:       SafeRequestsPerMinute,
		Length:      WindowLength,
		MinInterval: MinRequestInterval,
	}
}

// RolledOver reports whether the window has elapsed and should be reset.
func (w *Window) RolledOver(now time.Time) bool {
	return now.Sub(w.Start) >= w.Length
}

// Reset opens a fresh window at now with the dispatch counter cleared.
func (w *Window) Reset(now time.Time) {
	w.Dispatched = 0
	w.Start = now
}

// AtCap reports whether the window has reached its dispatch cap.
func (w *Window) AtCap() bool {
	return w.Dispatched >= w.Limit
}

// UntilRollover returns how long to wait until the window rolls over,
// including the rollover buffer. Returns just the buffer if the window has
// already elapsed.
func (w *Window) UntilRollover(now time.Time) time.Duration {
	remaining := w.Length - now.Sub(w.Start)
	if remaining < 0 {
		remaining = 0
	}
	return remaining + RolloverBuffer
}

// SpacingDelay returns how long to wait before the next dispatch so that
// dispatches stay at least MinInterval apart. Returns 0 if enough time has
// already passed or nothing has been dispatched yet.
func (w *Window) SpacingDelay(now time.Time) time.Duration {
	if w.LastDispatch.IsZero() {
		return 0
	}
	elapsed := now.Sub(w.LastDispatch)
	if elapsed >= w.MinInterval {
		return 0
	}
	return w.MinInterval - elapsed
}

// MarkDispatch records a dispatch at now.
func (w *Window) MarkDispatch(now time.Time) {
	w.Dispatched++
	w.LastDispatch = now
}
