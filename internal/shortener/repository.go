package shortener

import (
	"context"
	"errors"
)

var (
	ErrNotFound            = errors.New("short url not found")
	ErrExpired             = errors.New("short url expired")
	ErrInvalidURL          = errors.New("invalid url")
	ErrInvalidExpiry       = errors.New("expiry must be after creation time")
	ErrCodeTaken           = errors.New("short code already taken")
	ErrGenerationExhausted = errors.New("could not generate a unique short code")
	ErrUnavailable         = errors.New("url storage unavailable")
)

// Repository defines the storage operations backing the URL store.
//
// Implementations return copies; callers never share records with the repository.
type Repository interface {
	// Insert stores the record only if its code is unused.
	// Returns ErrCodeTaken when the code already exists, live or expired.
	Insert(ctx context.Context, shortURL *ShortURL) error

	// GetByCode returns the record for code regardless of expiry, or ErrNotFound.
	GetByCode(ctx context.Context, code Code) (*ShortURL, error)

	// GetByHash returns the most recent non-expiring record stored under urlHash,
	// or ErrNotFound. Expiring records are never indexed by hash.
	GetByHash(ctx context.Context, urlHash URLHash) (*ShortURL, error)
}
