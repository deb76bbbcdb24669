package shortener

import (
	"context"
	"errors"
	"time"
)

// Strategy defines the interface for URL shortening strategies.
type Strategy interface {
	Shorten(ctx context.Context, rawURL string, expiresAt *time.Time) (*ShortURL, error)
}

// TokenStrategy always issues a new code for each request.
type TokenStrategy struct {
	store *Store
}

// NewTokenStrategy creates a new token-based shortening strategy.
func NewTokenStrategy(store *Store) *TokenStrategy {
	return &TokenStrategy{store: store}
}

func (s *TokenStrategy) Shorten(ctx context.Context, rawURL string, expiresAt *time.Time) (*ShortURL, error) {
	return s.store.Put(ctx, rawURL, expiresAt)
}

// HashStrategy deduplicates URLs by returning the same code for equivalent URLs.
//
// Only non-expiring requests are deduplicated, and only against a non-expiring
// record. Requests with an expiry always get their own code so the caller's
// expiry is honored exactly.
type HashStrategy struct {
	store *Store
}

// NewHashStrategy creates a new hash-based shortening strategy.
func NewHashStrategy(store *Store) *HashStrategy {
	return &HashStrategy{store: store}
}

func (s *HashStrategy) Shorten(ctx context.Context, rawURL string, expiresAt *time.Time) (*ShortURL, error) {
	originalURL, err := ValidateURL(rawURL)
	if err != nil {
		return nil, err
	}

	normalizedURL, err := NormalizeURL(originalURL)
	if err != nil {
		return nil, err
	}

	urlHash := HashURL(normalizedURL)

	if expiresAt == nil {
		existing, err := s.store.GetByHash(ctx, urlHash)
		if err == nil && existing.ExpiresAt == nil {
			return existing, nil
		}

		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	return s.store.insert(ctx, originalURL, urlHash, expiresAt)
}
