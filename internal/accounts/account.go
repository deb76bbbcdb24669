// Package accounts owns user credentials: signup and password verification.
package accounts

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("account not found")
	ErrUnavailable        = errors.New("account storage unavailable")
)

// Account is a registered user. PasswordHash is never the plaintext password.
type Account struct {
	UserID       string
	PasswordHash string
	CreatedAt    time.Time
}

// Repository stores accounts keyed by user id.
type Repository interface {
	// Create inserts the account only if its user id is unused, returning ErrUserExists otherwise.
	Create(ctx context.Context, account *Account) error

	// GetByUserID returns the account or ErrNotFound.
	GetByUserID(ctx context.Context, userID string) (*Account, error)
}
