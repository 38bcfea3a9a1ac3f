// Package storage provides durable auth-token storage implementations.
package storage

import (
	"context"
	"sync"

	"github.com/hammamikhairi/recipebox/internal/domain"
	"github.com/hammamikhairi/recipebox/internal/logger"
)

// Compile-time interface check.
var _ domain.TokenStore = (*MemoryStore)(nil)

// MemoryStore keeps the token in memory. Safe for concurrent access.
// Nothing survives a restart; it is meant for tests and one-shot runs.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
	log   *logger.Logger
}

// NewMemoryStore creates an empty in-memory token store.
func NewMemoryStore(log *logger.Logger) *MemoryStore {
	return &MemoryStore{log: log}
}

// Get returns the stored token or domain.ErrNoToken.
func (s *MemoryStore) Get(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token == "" {
		return "", domain.ErrNoToken
	}
	return s.token, nil
}

// Set stores the token, overwriting any previous one.
func (s *MemoryStore) Set(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Debug("storing token (%d chars)", len(token))
	s.token = token
	return nil
}

// Remove clears the token. Removing when empty is not an error.
func (s *MemoryStore) Remove(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	s.log.Debug("token removed")
	return nil
}
