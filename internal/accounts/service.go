package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Service creates accounts and verifies credentials.
type Service struct {
	repo   Repository
	params Params
	now    func() time.Time

	// dummyHash is verified against for unknown users so both failure
	// paths cost one argon2 derivation.
	dummyHash string
}

// Option configures a Service.
type Option func(*Service)

// WithParams overrides the argon2id cost parameters for new hashes.
func WithParams(p Params) Option {
	return func(s *Service) {
		s.params = p
	}
}

// WithClock overrides the time source for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates an account service over repo.
func NewService(repo Repository, opts ...Option) (*Service, error) {
	s := &Service{
		repo:   repo,
		params: DefaultParams,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	dummy, err := HashPassword("dummy-password-for-timing", s.params)
	if err != nil {
		return nil, fmt.Errorf("derive dummy hash: %w", err)
	}

	s.dummyHash = dummy

	return s, nil
}

// CreateAccount registers userID with a salted hash of password.
func (s *Service) CreateAccount(ctx context.Context, userID, password string) (*Account, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	hash, err := HashPassword(password, s.params)
	if err != nil {
		return nil, err
	}

	account := &Account{
		UserID:       userID,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}

	if err := s.repo.Create(ctx, account); err != nil {
		if errors.Is(err, ErrUserExists) {
			return nil, ErrUserExists
		}

		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	return account, nil
}

// Verify reports whether password belongs to userID. Unknown users and wrong
// passwords are indistinguishable: both return false with a nil error.
// Only storage faults produce an error.
func (s *Service) Verify(ctx context.Context, userID, password string) (bool, error) {
	userID = strings.TrimSpace(userID)

	account, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return false, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}

		_, _ = VerifyPassword(password, s.dummyHash)

		return false, nil
	}

	ok, err := VerifyPassword(password, account.PasswordHash)
	if err != nil {
		return false, nil
	}

	return ok, nil
}
