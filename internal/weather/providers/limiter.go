package providers

import (
	"sync"
	"time"
)

// Default budget for one provider host.
const (
	DefaultRateLimit  = 50
	DefaultRateWindow = 60 * time.Second
)

// Limiter is a fixed-window call budget: at most limit dispatches per window,
// with the window starting at the first call after the previous one expired.
// A Limiter can be shared by every client talking to the same host.
type Limiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	count  int
	start  time.Time
}

// NewLimiter creates a limiter. Non-positive values fall back to the defaults.
func NewLimiter(limit int, window time.Duration) *Limiter {
	if limit <= 0 {
		limit = DefaultRateLimit
	}
	if window <= 0 {
		window = DefaultRateWindow
	}
	return &Limiter{limit: limit, window: window}
}

func (l *Limiter) roll(now time.Time) {
	if l.start.IsZero() || now.Sub(l.start) >= l.window {
		l.start = now
		l.count = 0
	}
}

// Allow reports whether a call could be dispatched now without consuming budget.
func (l *Limiter) Allow(now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.roll(now)
	return l.count < l.limit
}

// Acquire consumes one unit of budget. It reports false, consuming nothing,
// when the window is exhausted.
func (l *Limiter) Acquire(now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.roll(now)
	if l.count >= l.limit {
		return false
	}
	l.count++
	return true
}

// Saturate exhausts the current window, e.g. after the server answered 429.
func (l *Limiter) Saturate(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.roll(now)
	l.count = l.limit
}

// Remaining returns the unused budget of the current window.
func (l *Limiter) Remaining(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.roll(now)
	return l.limit - l.count
}
