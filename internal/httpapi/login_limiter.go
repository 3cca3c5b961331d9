package httpapi

import (
	"sync"
	"time"
)

// loginLimiter is a sliding-window attempt counter keyed by client IP or
// login email.
type loginLimiter struct {
	mu        sync.Mutex
	window    time.Duration
	max       int
	attempts  map[string][]time.Time
	lastSweep time.Time
}

func newLoginLimiter() *loginLimiter {
	return &loginLimiter{
		window:   5 * time.Minute,
		max:      10,
		attempts: make(map[string][]time.Time),
	}
}

// Allow records an attempt for key and reports whether it is within the limit.
func (l *loginLimiter) Allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.full(key, now) {
		return false
	}
	l.attempts[key] = append(l.attempts[key], now)
	return true
}

// Blocked reports whether key is over the limit without recording anything.
func (l *loginLimiter) Blocked(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.full(key, now)
}

// Fail records a failed attempt for key.
func (l *loginLimiter) Fail(key string, now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.full(key, now)
	l.attempts[key] = append(l.attempts[key], now)
}

// full prunes key to the current window and reports whether it is at the limit.
func (l *loginLimiter) full(key string, now time.Time) bool {
	if now.Sub(l.lastSweep) > l.window {
		l.sweep(now)
	}

	recent := l.recent(key, now)
	if len(recent) == 0 {
		delete(l.attempts, key)
		return false
	}
	l.attempts[key] = recent
	return len(recent) >= l.max
}

func (l *loginLimiter) recent(key string, now time.Time) []time.Time {
	cutoff := now.Add(-l.window)
	ts := l.attempts[key]
	kept := ts[:0]
	for _, t := range ts {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}

// sweep drops keys with no attempts inside the window so the map does not
// grow with every address ever seen.
func (l *loginLimiter) sweep(now time.Time) {
	for key := range l.attempts {
		if r := l.recent(key, now); len(r) > 0 {
			l.attempts[key] = r
		} else {
			delete(l.attempts, key)
		}
	}
	l.lastSweep = now
}
