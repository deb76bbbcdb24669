package ratelimit

import (
	"context"
	"time"
)

// Limiter decides whether a single keyed action may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, err error)
}

// SlidingWindowLimiter allows at most limit actions per key in any window.
type SlidingWindowLimiter struct {
	store  Store
	prefix string
	limit  int64
	window time.Duration
}

// NewSlidingWindowLimiter creates a limiter whose keys are namespaced by prefix.
func NewSlidingWindowLimiter(store Store, prefix string, limit int64, window time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		store:  store,
		prefix: prefix,
		limit:  limit,
		window: window,
	}
}

func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	count, err := l.store.Record(ctx, l.prefix+":"+key, l.window)
	if err != nil {
		return false, err
	}

	return count <= l.limit, nil
}

// Window returns the limiter's window, used for Retry-After hints.
func (l *SlidingWindowLimiter) Window() time.Duration {
	return l.window
}
