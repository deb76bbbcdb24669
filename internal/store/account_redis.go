package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/link-shortener/internal/accounts"
)

const accountKeyPrefix = "account:"

type accountRecord struct {
	UserID       string    `json:"user_id"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// RedisAccountStore is a Redis implementation of accounts.Repository.
// Each account is one JSON document created with SETNX.
type RedisAccountStore struct {
	client *redis.Client
}

// NewRedisAccountStore creates a new Redis-backed account store.
func NewRedisAccountStore(client *redis.Client) *RedisAccountStore {
	return &RedisAccountStore{client: client}
}

func (r *RedisAccountStore) Create(ctx context.Context, account *accounts.Account) error {
	payload, err := json.Marshal(accountRecord{
		UserID:       account.UserID,
		PasswordHash: account.PasswordHash,
		CreatedAt:    account.CreatedAt,
	})
	if err != nil {
		return err
	}

	created, err := r.client.SetNX(ctx, accountKeyPrefix+account.UserID, payload, 0).Result()
	if err != nil {
		return err
	}

	if !created {
		return accounts.ErrUserExists
	}

	return nil
}

func (r *RedisAccountStore) GetByUserID(ctx context.Context, userID string) (*accounts.Account, error) {
	payload, err := r.client.Get(ctx, accountKeyPrefix+userID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, accounts.ErrNotFound
		}

		return nil, err
	}

	var record accountRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, err
	}

	return &accounts.Account{
		UserID:       record.UserID,
		PasswordHash: record.PasswordHash,
		CreatedAt:    record.CreatedAt,
	}, nil
}

var _ accounts.Repository = (*RedisAccountStore)(nil)
