package store

import (
	"context"
	"sync"
	"time"
)

// RateLimitMemoryStore is an in-memory implementation of ratelimit.Store.
type RateLimitMemoryStore struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	now      func() time.Time
}

// NewRateLimitMemoryStore creates a new in-memory rate limit store.
func NewRateLimitMemoryStore() *RateLimitMemoryStore {
	return &RateLimitMemoryStore{
		requests: make(map[string][]time.Time),
		now:      time.Now,
	}
}

// Record appends a request timestamp for key and returns how many fall inside window.
func (s *RateLimitMemoryStore) Record(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	valid := prune(s.requests[key], now.Add(-window))
	valid = append(valid, now)
	s.requests[key] = valid

	return int64(len(valid)), nil
}

// prune drops timestamps at or before cutoff. Timestamps are appended in order,
// so the kept ones form a suffix.
func prune(timestamps []time.Time, cutoff time.Time) []time.Time {
	for i, ts := range timestamps {
		if ts.After(cutoff) {
			return append(make([]time.Time, 0, len(timestamps)-i+1), timestamps[i:]...)
		}
	}

	return make([]time.Time, 0, 1)
}
