package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// FileStorage persists all keys in a single JSON document on a billy
// filesystem. Writes go to a temp file that is renamed over the document.
type FileStorage struct {
	mu   sync.Mutex
	fs   billy.Filesystem
	name string
}

// NewFileStorage returns a FileStorage backed by name on fs.
func NewFileStorage(fs billy.Filesystem, name string) *FileStorage {
	return &FileStorage{fs: fs, name: name}
}

// Get implements Storage.
func (f *FileStorage) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return nil, err
	}
	v, ok := doc[key]
	if !ok {
		return nil, ErrNotFound
	}
	return []byte(v), nil
}

// Set implements Storage. value must be valid JSON.
func (f *FileStorage) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !json.Valid(value) {
		return fmt.Errorf("value for %q is not valid JSON", key)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		// An unreadable document is replaced rather than blocking writes.
		doc = map[string]json.RawMessage{}
	}
	doc[key] = json.RawMessage(value)
	return f.write(doc)
}

func (f *FileStorage) read() (map[string]json.RawMessage, error) {
	data, err := util.ReadFile(f.fs, f.name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]json.RawMessage{}, nil
		}
		return nil, fmt.Errorf("read storage: %w", err)
	}
	doc := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse storage: %w", err)
	}
	return doc, nil
}

func (f *FileStorage) write(doc map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal storage: %w", err)
	}
	dir := path.Dir(f.name)
	if dir != "." {
		if err := f.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create storage dir: %w", err)
		}
	}
	tmp, err := util.TempFile(f.fs, dir, ".storage-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = f.fs.Remove(tmp.Name())
		return fmt.Errorf("write storage: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = f.fs.Remove(tmp.Name())
		return fmt.Errorf("close storage: %w", err)
	}
	if err := f.fs.Rename(tmp.Name(), f.name); err != nil {
		_ = f.fs.Remove(tmp.Name())
		return fmt.Errorf("replace storage: %w", err)
	}
	return nil
}
