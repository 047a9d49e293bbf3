package history

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5/osfs"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("key not found")

// Storage is a durable key-value store scoped to one user profile.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

const (
	fileStorageName   = "storage.json"
	sqliteStorageName = "storage.db"
)

// Open returns the storage backend named by backend, rooted at dataDir.
// The returned close function releases backend resources.
func Open(backend, dataDir string) (Storage, func() error, error) {
	noop := func() error { return nil }
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendFile:
		return NewFileStorage(osfs.New(dataDir), fileStorageName), noop, nil
	case BackendSQLite:
		store, err := OpenSQLite(filepath.Join(dataDir, sqliteStorageName))
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case BackendMemory:
		return NewMemoryStorage(), noop, nil
	}
	return nil, nil, fmt.Errorf("unknown history backend %q", backend)
}

// MemoryStorage keeps values in process memory. It is safe for concurrent use.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryStorage returns an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string][]byte)}
}

// Get implements Storage.
func (m *MemoryStorage) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(v), nil
}

// Set implements Storage.
func (m *MemoryStorage) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = slices.Clone(value)
	return nil
}
