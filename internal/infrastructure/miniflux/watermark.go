package miniflux

import "time"

// Watermark is the changed-time boundary between delivered and pending
// entries. The zero value means no run has committed yet.
type Watermark struct {
	at  time.Time
	set bool
}

// WatermarkAt builds a committed watermark.
func WatermarkAt(t time.Time) Watermark {
	return Watermark{at: t, set: true}
}

// Time reports the boundary and whether one was ever committed.
func (w Watermark) Time() (time.Time, bool) {
	return w.at, w.set
}

// Advance returns the watermark moved forward to t. It never moves backwards.
func (w Watermark) Advance(t time.Time) Watermark {
	if w.set && !t.After(w.at) {
		return w
	}
	return WatermarkAt(t)
}

// LowerBound is the changed_after bound for a fetch starting at now.
func (w Watermark) LowerBound(now time.Time, lookback time.Duration) time.Time {
	if w.set {
		return w.at
	}
	return now.Add(-lookback)
}

// CursorStore owns the watermark between runs.
type CursorStore interface {
	Load() Watermark
	Store(Watermark)
}
