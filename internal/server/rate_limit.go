package server

import "time"

// commandLimit counts commands in a fixed window. Each session owns one and
// only its read loop touches it.
type commandLimit struct {
	limit  int
	window time.Duration
	start  time.Time
	count  int
}

func newCommandLimit(limit int, window time.Duration) *commandLimit {
	return &commandLimit{limit: limit, window: window}
}

// allow reports whether another command fits in the current window. A
// non-positive limit disables the check.
func (l *commandLimit) allow(now time.Time) bool {
	if l == nil || l.limit <= 0 {
		return true
	}
	if now.Sub(l.start) > l.window {
		l.start = now
		l.count = 0
	}
	if l.count >= l.limit {
		return false
	}
	l.count++
	return true
}
