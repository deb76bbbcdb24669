package shortener

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Store is the authoritative code to URL mapping. It owns code reservation
// and lazy expiry evaluation; persistence is delegated to a Repository.
type Store struct {
	repo        Repository
	generate    CodeGenerator
	maxAttempts int
	reserved    map[Code]bool
	now         func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for creation and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithMaxAttempts bounds how many candidate codes Put tries before giving up.
func WithMaxAttempts(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithReservedCodes keeps codes that collide with fixed routes from being issued.
func WithReservedCodes(codes ...string) Option {
	return func(s *Store) {
		for _, code := range codes {
			s.reserved[Code(code)] = true
		}
	}
}

// NewStore creates a URL store over repo using generate for candidate codes.
func NewStore(repo Repository, generate CodeGenerator, opts ...Option) *Store {
	s := &Store{
		repo:        repo,
		generate:    generate,
		maxAttempts: DefaultMaxAttempts,
		reserved:    make(map[Code]bool),
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Now returns the store's current time.
func (s *Store) Now() time.Time {
	return s.now()
}

// Put validates rawURL, reserves a fresh code and inserts the record.
func (s *Store) Put(ctx context.Context, rawURL string, expiresAt *time.Time) (*ShortURL, error) {
	originalURL, err := ValidateURL(rawURL)
	if err != nil {
		return nil, err
	}

	return s.insert(ctx, originalURL, "", expiresAt)
}

// insert retries on code collisions up to maxAttempts. Each attempt is a single
// insert-if-absent call, so a code is never handed out twice.
func (s *Store) insert(ctx context.Context, originalURL string, urlHash URLHash, expiresAt *time.Time) (*ShortURL, error) {
	now := s.now()

	if expiresAt != nil && !expiresAt.After(now) {
		return nil, ErrInvalidExpiry
	}

	for range s.maxAttempts {
		code := Code(s.generate())
		if s.reserved[code] {
			continue
		}

		record := &ShortURL{
			Code:        code,
			OriginalURL: originalURL,
			URLHash:     urlHash,
			CreatedAt:   now,
			ExpiresAt:   expiresAt,
		}

		err := s.repo.Insert(ctx, record)
		if err == nil {
			return record.Clone(), nil
		}

		if !errors.Is(err, ErrCodeTaken) {
			return nil, unavailable(err)
		}
	}

	return nil, fmt.Errorf("%w after %d attempts", ErrGenerationExhausted, s.maxAttempts)
}

// Get returns the live record for code. It returns ErrNotFound when the code
// was never issued and ErrExpired when the record exists but is past expiry.
func (s *Store) Get(ctx context.Context, code Code) (*ShortURL, error) {
	record, err := s.lookup(ctx, code)
	if err != nil {
		return nil, err
	}

	if record.ExpiredAt(s.now()) {
		return nil, ErrExpired
	}

	return record, nil
}

// GetExpired returns the record for code only when it exists and has expired.
func (s *Store) GetExpired(ctx context.Context, code Code) (*ShortURL, error) {
	record, err := s.lookup(ctx, code)
	if err != nil {
		return nil, err
	}

	if !record.ExpiredAt(s.now()) {
		return nil, ErrNotFound
	}

	return record, nil
}

// GetByHash returns the latest live record for urlHash.
func (s *Store) GetByHash(ctx context.Context, urlHash URLHash) (*ShortURL, error) {
	record, err := s.repo.GetByHash(ctx, urlHash)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}

		return nil, unavailable(err)
	}

	if record.ExpiredAt(s.now()) {
		return nil, ErrNotFound
	}

	return record, nil
}

func (s *Store) lookup(ctx context.Context, code Code) (*ShortURL, error) {
	record, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}

		return nil, unavailable(err)
	}

	return record, nil
}

func unavailable(err error) error {
	if errors.Is(err, ErrUnavailable) {
		return err
	}

	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
