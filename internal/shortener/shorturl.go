package shortener

import "time"

// Code represents a short URL code.
type Code string

// URLHash represents a hash of a normalized URL.
type URLHash string

// ShortURL represents a shortened URL entity. Records are immutable once stored.
type ShortURL struct {
	Code        Code
	OriginalURL string
	URLHash     URLHash // empty for token strategy, populated for hash strategy
	CreatedAt   time.Time
	ExpiresAt   *time.Time // nil means the link never expires
}

// ExpiredAt reports whether the link is no longer live at t.
func (s *ShortURL) ExpiredAt(t time.Time) bool {
	return s.ExpiresAt != nil && !t.Before(*s.ExpiresAt)
}

// Clone returns a deep copy of the record.
func (s *ShortURL) Clone() *ShortURL {
	c := *s

	if s.ExpiresAt != nil {
		expiresAt := *s.ExpiresAt
		c.ExpiresAt = &expiresAt
	}

	return &c
}
