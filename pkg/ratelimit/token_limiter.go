package ratelimit

import (
	"context"
	"sync"
	"time"
)

// TokenLimiter enforces a token budget per minute for LLM providers that meter
// usage by tokens rather than requests. The budget refills on a fixed window.
type TokenLimiter struct {
	mu          sync.Mutex
	maxPerMin   int
	used        int
	windowStart time.Time
	clock       Clock
}

// NewTokenLimiter creates a limiter with the given tokens-per-minute budget.
func NewTokenLimiter(maxPerMinute int) *TokenLimiter {
	return &TokenLimiter{
		maxPerMin:   maxPerMinute,
		windowStart: time.Now(),
		clock:       realClock{},
	}
}

// Wait blocks until n tokens fit in the current window, then reserves them.
// Requests larger than the whole budget are allowed through alone.
func (t *TokenLimiter) Wait(ctx context.Context, n int) error {
	for {
		t.mu.Lock()
		now := t.clock.Now()
		if now.Sub(t.windowStart) >= time.Minute {
			t.used = 0
			t.windowStart = now
		}

		if t.used+n <= t.maxPerMin || (n > t.maxPerMin && t.used == 0) {
			t.used += n
			t.mu.Unlock()
			return nil
		}

		wait := t.windowStart.Add(time.Minute).Sub(now)
		t.mu.Unlock()

		if err := t.clock.Sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// GetRemaining returns the unreserved tokens left in the current window.
func (t *TokenLimiter) GetRemaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.clock.Now().Sub(t.windowStart) >= time.Minute {
		return t.maxPerMin
	}
	return t.maxPerMin - t.used
}
