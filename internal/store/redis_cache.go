package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/link-shortener/internal/shortener"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "cache:"

// RedisCacheRepository wraps a Repository with a Redis read-through cache.
// Only live records are cached, and never beyond their expiry.
type RedisCacheRepository struct {
	store  shortener.Repository
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// NewRedisCacheRepository creates a new Redis-cached repository decorator.
func NewRedisCacheRepository(
	store shortener.Repository, client *redis.Client, ttl time.Duration, logger *zap.Logger,
) *RedisCacheRepository {
	return &RedisCacheRepository{
		store:  store,
		client: client,
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
	}
}

// Insert stores a short URL in the underlying store and updates the cache.
func (r *RedisCacheRepository) Insert(ctx context.Context, shortURL *shortener.ShortURL) error {
	if err := r.store.Insert(ctx, shortURL); err != nil {
		return err
	}

	r.cacheURL(ctx, shortURL)

	return nil
}

// GetByCode retrieves a short URL by its code, checking cache first.
func (r *RedisCacheRepository) GetByCode(ctx context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	if cached, err := r.getFromCache(ctx, code); err == nil {
		return cached, nil
	}

	shortURL, err := r.store.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	r.cacheURL(ctx, shortURL)

	return shortURL, nil
}

// GetByHash always consults the underlying store, which owns the latest-record ordering.
func (r *RedisCacheRepository) GetByHash(ctx context.Context, urlHash shortener.URLHash) (*shortener.ShortURL, error) {
	shortURL, err := r.store.GetByHash(ctx, urlHash)
	if err != nil {
		return nil, err
	}

	r.cacheURL(ctx, shortURL)

	return shortURL, nil
}

// PurgeExpired forwards to the underlying store when it supports purging.
// Cache entries never outlive expiry, so nothing needs evicting here.
func (r *RedisCacheRepository) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	purger, ok := r.store.(Purger)
	if !ok {
		return 0, nil
	}

	return purger.PurgeExpired(ctx, before)
}

func (r *RedisCacheRepository) getFromCache(ctx context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	fields, err := r.client.HGetAll(ctx, cacheKeyPrefix+string(code)).Result()
	if err != nil {
		return nil, err
	}

	return decodeShortURL(fields)
}

func (r *RedisCacheRepository) cacheURL(ctx context.Context, shortURL *shortener.ShortURL) {
	ttl := r.ttl

	if shortURL.ExpiresAt != nil {
		remaining := shortURL.ExpiresAt.Sub(r.now())
		if remaining <= 0 {
			return
		}

		if ttl <= 0 || remaining < ttl {
			ttl = remaining
		}
	}

	key := cacheKeyPrefix + string(shortURL.Code)

	pipe := r.client.Pipeline()
	pipe.HSet(ctx, key, encodeShortURL(shortURL))

	if ttl > 0 {
		pipe.PExpire(ctx, key, ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Warn("failed to cache url", zap.String("code", string(shortURL.Code)), zap.Error(err))
	}
}

var (
	_ shortener.Repository = (*RedisCacheRepository)(nil)
	_ Purger               = (*RedisCacheRepository)(nil)
)
