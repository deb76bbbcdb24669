package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/link-shortener/internal/analytics"
	"github.com/serroba/link-shortener/internal/shortener"
)

const statsKeyPrefix = "stats:"

// Counts are the per-code analytics counters.
type Counts struct {
	Created  int64
	Outcomes map[string]int64
}

// RedisCounter keeps per-code counters in a redis hash: "created" plus one
// field per access outcome. Lookups of unknown codes are not counted, so
// arbitrary codes never create keys.
type RedisCounter struct {
	client *redis.Client
}

// NewRedisCounter creates a redis-backed analytics store.
func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

func (r *RedisCounter) SaveURLCreated(ctx context.Context, event *analytics.URLCreatedEvent) error {
	if err := r.client.HIncrBy(ctx, statsKeyPrefix+event.Code, "created", 1).Err(); err != nil {
		return fmt.Errorf("increment created count: %w", err)
	}

	return nil
}

func (r *RedisCounter) SaveURLAccessed(ctx context.Context, event *analytics.URLAccessedEvent) error {
	if event.Outcome == shortener.OutcomeNotFound.String() {
		return nil
	}

	if err := r.client.HIncrBy(ctx, statsKeyPrefix+event.Code, event.Outcome, 1).Err(); err != nil {
		return fmt.Errorf("increment %s count: %w", event.Outcome, err)
	}

	return nil
}

// Counts reads the counters recorded for code. Unknown codes return zero counts.
func (r *RedisCounter) Counts(ctx context.Context, code string) (*Counts, error) {
	fields, err := r.client.HGetAll(ctx, statsKeyPrefix+code).Result()
	if err != nil {
		return nil, err
	}

	counts := &Counts{Outcomes: make(map[string]int64, len(fields))}

	for field, raw := range fields {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %s count: %w", field, err)
		}

		if field == "created" {
			counts.Created = n

			continue
		}

		counts.Outcomes[field] = n
	}

	return counts, nil
}

var _ analytics.Store = (*RedisCounter)(nil)
