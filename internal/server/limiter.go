// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ============================================================================
// RATE LIMITER
// ============================================================================

// DefaultRatePerMinute is the chat request budget of one session.
const DefaultRatePerMinute = 30

type limiterEntry struct {
	limiter *rate.Limiter
	seen    time.Time
}

// RateLimiter hands out one token bucket per key.
type RateLimiter struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu      sync.Mutex
	entries map[string]*limiterEntry
}

// NewRateLimiter allows perMinute requests a minute per key, with bursts of
// up to a fifth of that. A non-positive perMinute uses DefaultRatePerMinute.
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = DefaultRatePerMinute
	}
	burst := perMinute / 5
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limit:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   burst,
		now:     time.Now,
		entries: make(map[string]*limiterEntry),
	}
}

// Allow reports whether key may make a request now.
func (rl *RateLimiter) Allow(key string) bool {
	now := rl.now()

	rl.mu.Lock()
	e, ok := rl.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.entries[key] = e
	}
	e.seen = now
	rl.mu.Unlock()

	return e.limiter.AllowN(now, 1)
}

// RetryAfter is the interval at which a bucket refills one token.
func (rl *RateLimiter) RetryAfter() time.Duration {
	return time.Duration(float64(time.Second) / float64(rl.limit))
}

// Forget drops buckets unused for idle and returns how many went.
func (rl *RateLimiter) Forget(idle time.Duration) int {
	cutoff := rl.now().Add(-idle)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	n := 0
	for key, e := range rl.entries {
		if e.seen.Before(cutoff) {
			delete(rl.entries, key)
			n++
		}
	}
	return n
}
