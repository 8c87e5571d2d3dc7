package auth

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LoginLimiter throttles login attempts per identifier (username or email)
// with a token bucket each. Entries unused for an hour are swept out to keep
// the map bounded.
type LoginLimiter struct {
	mu      sync.Mutex
	buckets map[string]*loginBucket
	rate    rate.Limit
	burst   int
}

type loginBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLoginLimiter allows perMinute attempts per identifier with the given
// burst.
func NewLoginLimiter(perMinute, burst int) *LoginLimiter {
	return &LoginLimiter{
		buckets: make(map[string]*loginBucket),
		rate:    rate.Limit(float64(perMinute) / 60.0),
		burst:   burst,
	}
}

// Allow reports whether another login attempt for key may proceed now.
func (l *LoginLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		if len(l.buckets) > 10000 {
			l.sweepLocked()
		}
		b = &loginBucket{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = time.Now()
	return b.limiter.Allow()
}

func (l *LoginLimiter) sweepLocked() {
	cutoff := time.Now().Add(-time.Hour)
	for key, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}
