package store

import (
	"context"
	"sync"
	"time"

	"github.com/serroba/link-shortener/internal/shortener"
)

// MemoryStore is an in-memory implementation of shortener.Repository.
type MemoryStore struct {
	mu     sync.RWMutex
	urls   map[shortener.Code]*shortener.ShortURL
	hashes map[shortener.URLHash]shortener.Code // latest non-expiring code per hash
}

// NewMemoryStore creates a new in-memory URL store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		urls:   make(map[shortener.Code]*shortener.ShortURL),
		hashes: make(map[shortener.URLHash]shortener.Code),
	}
}

func (m *MemoryStore) Insert(_ context.Context, shortURL *shortener.ShortURL) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.urls[shortURL.Code]; exists {
		return shortener.ErrCodeTaken
	}

	m.urls[shortURL.Code] = shortURL.Clone()

	if shortURL.URLHash != "" && shortURL.ExpiresAt == nil {
		m.hashes[shortURL.URLHash] = shortURL.Code
	}

	return nil
}

func (m *MemoryStore) GetByCode(_ context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	shortURL, ok := m.urls[code]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	return shortURL.Clone(), nil
}

func (m *MemoryStore) GetByHash(_ context.Context, urlHash shortener.URLHash) (*shortener.ShortURL, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	code, ok := m.hashes[urlHash]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	shortURL, ok := m.urls[code]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	return shortURL.Clone(), nil
}

// PurgeExpired removes records that expired before the given time.
func (m *MemoryStore) PurgeExpired(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var purged int64

	for code, shortURL := range m.urls {
		if shortURL.ExpiresAt == nil || !shortURL.ExpiresAt.Before(before) {
			continue
		}

		delete(m.urls, code)

		purged++
	}

	return purged, nil
}

var (
	_ shortener.Repository = (*MemoryStore)(nil)
	_ Purger               = (*MemoryStore)(nil)
)
