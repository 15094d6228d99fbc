package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SlidingWindowLimiter permits at most maxCalls completions within any trailing
// period window. The guarantee is per instance, there is no cross-instance
// coordination.
type SlidingWindowLimiter struct {
	mu       sync.Mutex
	maxCalls int
	period   time.Duration
	calls    []time.Time
	clock    Clock
}

// NewSlidingWindowLimiter creates a limiter allowing maxCalls per period.
func NewSlidingWindowLimiter(maxCalls int, period time.Duration) *SlidingWindowLimiter {
	return NewSlidingWindowLimiterWithClock(maxCalls, period, realClock{})
}

// NewSlidingWindowLimiterWithClock creates a limiter with an injected clock.
func NewSlidingWindowLimiterWithClock(maxCalls int, period time.Duration, clock Clock) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		maxCalls: maxCalls,
		period:   period,
		calls:    make([]time.Time, 0, maxCalls),
		clock:    clock,
	}
}

// Wait blocks until the caller may proceed, then records the call. It returns
// early with the context error if ctx is cancelled while waiting.
func (l *SlidingWindowLimiter) Wait(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.clock.Now()
		l.prune(now)

		if len(l.calls) < l.maxCalls {
			l.calls = append(l.calls, now)
			l.mu.Unlock()
			return nil
		}

		wait := l.calls[0].Add(l.period).Sub(now)
		l.mu.Unlock()

		if err := l.clock.Sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// Remaining returns how many calls may proceed immediately.
func (l *SlidingWindowLimiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(l.clock.Now())
	return l.maxCalls - len(l.calls)
}

// prune drops timestamps older than the window. Caller holds the lock.
func (l *SlidingWindowLimiter) prune(now time.Time) {
	cutoff := now.Add(-l.period)
	idx := 0
	for idx < len(l.calls) && !l.calls[idx].After(cutoff) {
		idx++
	}
	if idx > 0 {
		l.calls = append(l.calls[:0], l.calls[idx:]...)
	}
}
