package storage

import (
	"fmt"
	"io"

	"github.com/hammamikhairi/recipebox/internal/domain"
	"github.com/hammamikhairi/recipebox/internal/logger"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open builds the token store for the named backend. The returned closer
// is a no-op for backends without resources.
func Open(backend, path string, log *logger.Logger) (domain.TokenStore, io.Closer, error) {
	switch backend {
	case BackendMemory:
		return NewMemoryStore(log), nopCloser{}, nil
	case BackendFile:
		return NewFileStore(path, log), nopCloser{}, nil
	case "", BackendSQLite:
		s, err := NewSQLiteStore(path, log)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	}
	return nil, nil, fmt.Errorf("storage: unknown backend %q", backend)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
