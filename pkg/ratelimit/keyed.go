package ratelimit

import (
	"sync"
	"time"
)

// KeyedLimiter keeps one sliding window per key, typically a client IP.
// Windows that have been idle for a full period are dropped on the next sweep.
type KeyedLimiter struct {
	maxRequests int
	window      time.Duration
	now         func() time.Time

	mu        sync.Mutex
	limiters  map[string]*SlidingWindow
	lastSweep time.Time
}

// NewKeyedLimiter allows maxRequests per key within each window
func NewKeyedLimiter(maxRequests int, window time.Duration) *KeyedLimiter {
	return newKeyedLimiter(maxRequests, window, time.Now)
}

func newKeyedLimiter(maxRequests int, window time.Duration, now func() time.Time) *KeyedLimiter {
	return &KeyedLimiter{
		maxRequests: maxRequests,
		window:      window,
		now:         now,
		limiters:    make(map[string]*SlidingWindow),
		lastSweep:   now(),
	}
}

// Allow records a request for key and reports whether it is within the limit.
// The window is charged under k.mu so a concurrent sweep cannot drop it
// between lookup and use.
func (k *KeyedLimiter) Allow(key string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := k.now()
	if now.Sub(k.lastSweep) >= k.window {
		k.sweep(now)
	}

	limiter, ok := k.limiters[key]
	if !ok {
		limiter = newSlidingWindow(k.maxRequests, k.window, k.now)
		k.limiters[key] = limiter
	}
	return limiter.Allow()
}

// Len returns the number of keys currently tracked
func (k *KeyedLimiter) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.limiters)
}

// sweep drops idle windows; k.mu must be held
func (k *KeyedLimiter) sweep(now time.Time) {
	for key, limiter := range k.limiters {
		if limiter.idle(now) {
			delete(k.limiters, key)
		}
	}
	k.lastSweep = now
}
