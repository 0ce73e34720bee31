// Package ratelimit provides a keyed token-bucket rate limiter. Each key gets
// its own independent limiter; the client core uses it to damp repeatable
// user actions like confirmation-email resends.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Keyed manages per-key rate limiting.
type Keyed struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// New creates a keyed rate limiter allowing rps events per second per key
// with the given burst.
func New(rps float64, burst int) *Keyed {
	return &Keyed{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(rps),
		burst:    burst,
	}
}

// Allow reports whether an event for the key may proceed right now.
func (k *Keyed) Allow(key string) bool {
	return k.limiter(key).Allow()
}

// Wait blocks until an event for the key is allowed or the context ends.
func (k *Keyed) Wait(ctx context.Context, key string) error {
	return k.limiter(key).Wait(ctx)
}

// limiter returns the limiter for a key, creating one if needed.
func (k *Keyed) limiter(key string) *rate.Limiter {
	k.mu.RLock()
	lim, ok := k.limiters[key]
	k.mu.RUnlock()
	if ok {
		return lim
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if lim, ok = k.limiters[key]; ok {
		return lim
	}
	lim = rate.NewLimiter(k.limit, k.burst)
	k.limiters[key] = lim
	return lim
}
