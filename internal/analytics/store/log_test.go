package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/serroba/link-shortener/internal/analytics"
	"github.com/serroba/link-shortener/internal/analytics/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLog_SaveURLCreated(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := store.NewLog(zap.New(core))
	expiresAt := time.Now().Add(24 * time.Hour)

	err := s.SaveURLCreated(context.Background(), &analytics.URLCreatedEvent{
		Code:        "abc123",
		OriginalURL: "https://example.com",
		Strategy:    "hash",
		CreatedAt:   time.Now(),
		ExpiresAt:   &expiresAt,
		CreatedBy:   "alice",
	})

	require.NoError(t, err)
	require.Equal(t, 1, logs.Len())

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "abc123", fields["code"])
	assert.Equal(t, "hash", fields["strategy"])
	assert.Equal(t, "alice", fields["createdBy"])
	assert.Contains(t, fields, "expiresAt")
}

func TestLog_SaveURLAccessed(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := store.NewLog(zap.New(core))

	err := s.SaveURLAccessed(context.Background(), &analytics.URLAccessedEvent{
		Code:       "abc123",
		Outcome:    "not_found",
		AccessedAt: time.Now(),
		ClientIP:   "127.0.0.1",
		UserAgent:  "TestAgent/1.0",
		Referrer:   "https://referrer.com",
	})

	require.NoError(t, err)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "not_found", logs.All()[0].ContextMap()["outcome"])
}
