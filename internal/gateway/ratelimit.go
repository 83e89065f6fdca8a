package gateway

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL  = 10 * time.Minute
	limiterSweepInt = 5 * time.Minute
)

// RateLimiter is a token bucket per key (client IP). It guards both the
// WebSocket methods and the HTTP API.
type RateLimiter struct {
	r     rate.Limit
	burst int

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows rpm requests per minute per key with the given
// burst. rpm <= 0 disables limiting.
func NewRateLimiter(rpm, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 5
	}
	var r rate.Limit
	if rpm > 0 {
		r = rate.Limit(float64(rpm) / 60)
	}
	return &RateLimiter{r: r, burst: burst, buckets: make(map[string]*bucket), lastSweep: time.Now()}
}

// Enabled reports whether limiting is active.
func (rl *RateLimiter) Enabled() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.r > 0
}

// SetRPM changes the rate for all keys. Existing buckets are dropped.
func (rl *RateLimiter) SetRPM(rpm int) {
	var r rate.Limit
	if rpm > 0 {
		r = rate.Limit(float64(rpm) / 60)
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if r != rl.r {
		rl.r = r
		rl.buckets = make(map[string]*bucket)
	}
}

// Allow consumes one token for key.
func (rl *RateLimiter) Allow(key string) bool {
	now := time.Now()

	rl.mu.Lock()
	if rl.r <= 0 {
		rl.mu.Unlock()
		return true
	}
	if now.Sub(rl.lastSweep) > limiterSweepInt {
		rl.sweepLocked(now)
	}
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rl.r, rl.burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	rl.mu.Unlock()

	if !b.lim.AllowN(now, 1) {
		slog.Warn("security.rate_limited", "key", key)
		return false
	}
	return true
}

// sweepLocked drops buckets idle for longer than limiterIdleTTL.
func (rl *RateLimiter) sweepLocked(now time.Time) {
	for k, b := range rl.buckets {
		if now.Sub(b.lastSeen) > limiterIdleTTL {
			delete(rl.buckets, k)
		}
	}
	rl.lastSweep = now
}
