package store

import (
	"context"
	"sync"

	"github.com/serroba/link-shortener/internal/accounts"
)

// AccountMemoryStore is an in-memory implementation of accounts.Repository.
type AccountMemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]accounts.Account
}

// NewAccountMemoryStore creates a new in-memory account store.
func NewAccountMemoryStore() *AccountMemoryStore {
	return &AccountMemoryStore{
		accounts: make(map[string]accounts.Account),
	}
}

func (m *AccountMemoryStore) Create(_ context.Context, account *accounts.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.accounts[account.UserID]; exists {
		return accounts.ErrUserExists
	}

	m.accounts[account.UserID] = *account

	return nil
}

func (m *AccountMemoryStore) GetByUserID(_ context.Context, userID string) (*accounts.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	account, ok := m.accounts[userID]
	if !ok {
		return nil, accounts.ErrNotFound
	}

	return &account, nil
}

var _ accounts.Repository = (*AccountMemoryStore)(nil)
