package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/link-shortener/internal/accounts"
)

// PostgresAccountStore is a PostgreSQL implementation of accounts.Repository.
type PostgresAccountStore struct {
	pool *pgxpool.Pool
}

// NewPostgresAccountStore creates a new PostgreSQL-backed account store.
func NewPostgresAccountStore(pool *pgxpool.Pool) *PostgresAccountStore {
	return &PostgresAccountStore{pool: pool}
}

func (p *PostgresAccountStore) Create(ctx context.Context, account *accounts.Account) error {
	tag, err := p.pool.Exec(ctx, `
		INSERT INTO accounts (user_id, password_hash, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO NOTHING
	`, account.UserID, account.PasswordHash, account.CreatedAt)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return accounts.ErrUserExists
	}

	return nil
}

func (p *PostgresAccountStore) GetByUserID(ctx context.Context, userID string) (*accounts.Account, error) {
	var account accounts.Account

	err := p.pool.QueryRow(ctx,
		`SELECT user_id, password_hash, created_at FROM accounts WHERE user_id = $1`,
		userID,
	).Scan(&account.UserID, &account.PasswordHash, &account.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, accounts.ErrNotFound
		}

		return nil, err
	}

	return &account, nil
}

var _ accounts.Repository = (*PostgresAccountStore)(nil)
