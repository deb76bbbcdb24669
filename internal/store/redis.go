package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/link-shortener/internal/shortener"
)

// insertScript creates the record hash only when the code is unused and
// updates the hash index in the same step. Only non-expiring records are indexed.
//
// KEYS[1] record key, KEYS[2] hash index key.
// ARGV: code, original_url, url_hash, created_at, expires_at ("" if none), purge_at ms (0 if none).
var insertScript = redis.NewScript(`
	if redis.call('EXISTS', KEYS[1]) == 1 then
		return 0
	end

	redis.call('HSET', KEYS[1],
		'code', ARGV[1],
		'original_url', ARGV[2],
		'url_hash', ARGV[3],
		'created_at', ARGV[4])

	if ARGV[5] ~= '' then
		redis.call('HSET', KEYS[1], 'expires_at', ARGV[5])
	end

	if ARGV[3] ~= '' and ARGV[5] == '' then
		redis.call('HSET', KEYS[2], ARGV[3], ARGV[1])
	end

	local purgeAt = tonumber(ARGV[6])
	if purgeAt > 0 then
		redis.call('PEXPIREAT', KEYS[1], purgeAt)
	end

	return 1
`)

// RedisStore is a Redis implementation of shortener.Repository.
type RedisStore struct {
	client    *redis.Client
	retention time.Duration
}

// NewRedisStore creates a new Redis-backed URL store. When retention is positive,
// expiring records are dropped by Redis once they have been expired for that long.
func NewRedisStore(client *redis.Client, retention time.Duration) *RedisStore {
	return &RedisStore{
		client:    client,
		retention: retention,
	}
}

func (r *RedisStore) Insert(ctx context.Context, shortURL *shortener.ShortURL) error {
	var expiresAt string

	var purgeAt int64

	if shortURL.ExpiresAt != nil {
		expiresAt = strconv.FormatInt(shortURL.ExpiresAt.UnixNano(), 10)

		if r.retention > 0 {
			purgeAt = shortURL.ExpiresAt.Add(r.retention).UnixMilli()
		}
	}

	created, err := insertScript.Run(ctx, r.client,
		[]string{urlKey(shortURL.Code), urlHashesKey},
		string(shortURL.Code),
		shortURL.OriginalURL,
		string(shortURL.URLHash),
		shortURL.CreatedAt.UnixNano(),
		expiresAt,
		purgeAt,
	).Int()
	if err != nil {
		return err
	}

	if created == 0 {
		return shortener.ErrCodeTaken
	}

	return nil
}

func (r *RedisStore) GetByCode(ctx context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	fields, err := r.client.HGetAll(ctx, urlKey(code)).Result()
	if err != nil {
		return nil, err
	}

	return decodeShortURL(fields)
}

func (r *RedisStore) GetByHash(ctx context.Context, urlHash shortener.URLHash) (*shortener.ShortURL, error) {
	code, err := r.client.HGet(ctx, urlHashesKey, string(urlHash)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, shortener.ErrNotFound
		}

		return nil, err
	}

	return r.GetByCode(ctx, shortener.Code(code))
}

var _ shortener.Repository = (*RedisStore)(nil)
