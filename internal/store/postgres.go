package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/link-shortener/internal/shortener"
)

const selectShortURL = `SELECT code, original_url, url_hash, created_at, expires_at FROM short_urls`

// PostgresStore is a PostgreSQL implementation of shortener.Repository.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed URL store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (p *PostgresStore) Insert(ctx context.Context, shortURL *shortener.ShortURL) error {
	query := `
		INSERT INTO short_urls (code, original_url, url_hash, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (code) DO NOTHING
	`

	tag, err := p.pool.Exec(ctx, query,
		string(shortURL.Code),
		shortURL.OriginalURL,
		nullableString(shortURL.URLHash),
		shortURL.CreatedAt,
		shortURL.ExpiresAt,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return shortener.ErrCodeTaken
	}

	return nil
}

func (p *PostgresStore) GetByCode(ctx context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	return scanShortURL(p.pool.QueryRow(ctx, selectShortURL+` WHERE code = $1`, string(code)))
}

func (p *PostgresStore) GetByHash(ctx context.Context, urlHash shortener.URLHash) (*shortener.ShortURL, error) {
	return scanShortURL(p.pool.QueryRow(ctx,
		selectShortURL+` WHERE url_hash = $1 AND expires_at IS NULL ORDER BY created_at DESC LIMIT 1`,
		string(urlHash),
	))
}

// PurgeExpired deletes records that expired before the given time.
func (p *PostgresStore) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := p.pool.Exec(ctx,
		`DELETE FROM short_urls WHERE expires_at IS NOT NULL AND expires_at < $1`,
		before,
	)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

func scanShortURL(row pgx.Row) (*shortener.ShortURL, error) {
	var (
		shortURL shortener.ShortURL
		urlHash  *string
	)

	err := row.Scan(
		&shortURL.Code,
		&shortURL.OriginalURL,
		&urlHash,
		&shortURL.CreatedAt,
		&shortURL.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shortener.ErrNotFound
		}

		return nil, err
	}

	if urlHash != nil {
		shortURL.URLHash = shortener.URLHash(*urlHash)
	}

	return &shortURL, nil
}

func nullableString(s shortener.URLHash) *string {
	if s == "" {
		return nil
	}

	str := string(s)

	return &str
}

var (
	_ shortener.Repository = (*PostgresStore)(nil)
	_ Purger               = (*PostgresStore)(nil)
)
