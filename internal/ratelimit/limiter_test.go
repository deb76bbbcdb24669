package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/serroba/link-shortener/internal/ratelimit"
	"github.com/serroba/link-shortener/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlidingWindowLimiter(t *testing.T) {
	ctx := context.Background()

	t.Run("allows up to the limit then denies", func(t *testing.T) {
		limiter := ratelimit.NewSlidingWindowLimiter(store.NewRateLimitMemoryStore(), "login", 3, time.Minute)

		for range 3 {
			allowed, err := limiter.Allow(ctx, "alice")

			require.NoError(t, err)
			assert.True(t, allowed)
		}

		allowed, err := limiter.Allow(ctx, "alice")

		require.NoError(t, err)
		assert.False(t, allowed)

		allowed, _ = limiter.Allow(ctx, "bob")
		assert.True(t, allowed, "keys are limited independently")
	})

	t.Run("allows again once the window has passed", func(t *testing.T) {
		limiter := ratelimit.NewSlidingWindowLimiter(store.NewRateLimitMemoryStore(), "login", 1, 50*time.Millisecond)

		allowed, _ := limiter.Allow(ctx, "alice")
		assert.True(t, allowed)

		allowed, _ = limiter.Allow(ctx, "alice")
		assert.False(t, allowed)

		time.Sleep(60 * time.Millisecond)

		allowed, err := limiter.Allow(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("namespaces keys by prefix", func(t *testing.T) {
		shared := store.NewRateLimitMemoryStore()
		login := ratelimit.NewSlidingWindowLimiter(shared, "login", 1, time.Minute)
		signup := ratelimit.NewSlidingWindowLimiter(shared, "signup", 1, time.Minute)

		allowed, _ := login.Allow(ctx, "alice")
		assert.True(t, allowed)

		allowed, _ = signup.Allow(ctx, "alice")
		assert.True(t, allowed)
		assert.Equal(t, time.Minute, login.Window())
	})
}
