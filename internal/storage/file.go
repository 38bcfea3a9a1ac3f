package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/hammamikhairi/recipebox/internal/domain"
	"github.com/hammamikhairi/recipebox/internal/logger"
)

// Compile-time interface check.
var _ domain.TokenStore = (*FileStore)(nil)

// FileStore keeps client state in a small JSON object on disk, keyed like
// browser local storage. Only domain.TokenKey is used today.
type FileStore struct {
	mu   sync.Mutex
	path string
	log  *logger.Logger
}

// NewFileStore returns a store backed by path. The file is created on the
// first Set; a missing file reads as "no token".
func NewFileStore(path string, log *logger.Logger) *FileStore {
	return &FileStore{path: path, log: log}
}

// Get returns the stored token or domain.ErrNoToken.
func (s *FileStore) Get(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kv, err := s.load()
	if err != nil {
		return "", err
	}
	tok := kv[domain.TokenKey]
	if tok == "" {
		return "", domain.ErrNoToken
	}
	return tok, nil
}

// Set stores the token.
func (s *FileStore) Set(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kv, err := s.load()
	if err != nil {
		return err
	}
	kv[domain.TokenKey] = token
	if err := s.save(kv); err != nil {
		return err
	}
	s.log.Debug("token written to %s", s.path)
	return nil
}

// Remove deletes the token key. The file itself is kept.
func (s *FileStore) Remove(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kv, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := kv[domain.TokenKey]; !ok {
		return nil
	}
	delete(kv, domain.TokenKey)
	if err := s.save(kv); err != nil {
		return err
	}
	s.log.Debug("token removed from %s", s.path)
	return nil
}

func (s *FileStore) load() (map[string]string, error) {
	kv := make(map[string]string)
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return kv, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", s.path, err)
	}
	if len(b) == 0 {
		return kv, nil
	}
	if err := json.Unmarshal(b, &kv); err != nil {
		return nil, fmt.Errorf("storage: decode %s: %w", s.path, err)
	}
	return kv, nil
}

func (s *FileStore) save(kv map[string]string) error {
	if dir := filepath.Dir(s.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("storage: create dir: %w", err)
		}
	}
	if err := writeJSONAtomic(s.path, kv); err != nil {
		return fmt.Errorf("storage: write %s: %w", s.path, err)
	}
	return nil
}

// writeJSONAtomic writes through a temp file and renames it into place.
// The token is a credential, so the file is user-only.
func writeJSONAtomic(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}

	if err := os.Rename(tmp, path); err == nil {
		return nil
	}

	defer os.Remove(tmp)

	if runtime.GOOS == "windows" {
		_ = os.Remove(path)
	}
	return os.Rename(tmp, path)
}
