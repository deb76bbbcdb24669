package store

import (
	"fmt"
	"strconv"
	"time"

	"github.com/serroba/link-shortener/internal/shortener"
)

const (
	urlKeyPrefix = "url:"
	urlHashesKey = "url_hashes"
)

func urlKey(code shortener.Code) string {
	return urlKeyPrefix + string(code)
}

// encodeShortURL flattens a record into redis hash fields. Timestamps are unix nanoseconds.
func encodeShortURL(shortURL *shortener.ShortURL) map[string]any {
	fields := map[string]any{
		"code":         string(shortURL.Code),
		"original_url": shortURL.OriginalURL,
		"url_hash":     string(shortURL.URLHash),
		"created_at":   shortURL.CreatedAt.UnixNano(),
	}

	if shortURL.ExpiresAt != nil {
		fields["expires_at"] = shortURL.ExpiresAt.UnixNano()
	}

	return fields
}

func decodeShortURL(fields map[string]string) (*shortener.ShortURL, error) {
	if len(fields) == 0 {
		return nil, shortener.ErrNotFound
	}

	createdAt, err := parseNanos(fields["created_at"])
	if err != nil {
		return nil, fmt.Errorf("decode created_at: %w", err)
	}

	shortURL := &shortener.ShortURL{
		Code:        shortener.Code(fields["code"]),
		OriginalURL: fields["original_url"],
		URLHash:     shortener.URLHash(fields["url_hash"]),
		CreatedAt:   createdAt,
	}

	if raw, ok := fields["expires_at"]; ok && raw != "" {
		expiresAt, err := parseNanos(raw)
		if err != nil {
			return nil, fmt.Errorf("decode expires_at: %w", err)
		}

		shortURL.ExpiresAt = &expiresAt
	}

	return shortURL, nil
}

func parseNanos(raw string) (time.Time, error) {
	nanos, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, err
	}

	return time.Unix(0, nanos).UTC(), nil
}
