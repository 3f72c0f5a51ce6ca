package statestore

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
)

// FileStore reads keys from a JSON document on disk.
//
// The document is re-read on every lookup because sibling processes rewrite
// it independently. "weather.data" resolves to doc["weather"]["data"].
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by the JSON document at path.
// The file does not need to exist yet.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the document path.
func (s *FileStore) Path() string { return s.path }

// Lookup returns the raw JSON value at the dotted key.
func (s *FileStore) Lookup(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	parts := splitKey(key)
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty key")
	}

	data, err := os.ReadFile(s.path)
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var node any
	if err := json.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	for _, p := range parts {
		obj, ok := node.(map[string]any)
		if !ok {
			return nil, ErrNotFound
		}
		if node, ok = obj[p]; !ok {
			return nil, ErrNotFound
		}
	}
	if node == nil {
		return nil, ErrNotFound
	}
	return json.Marshal(node)
}

// Close does nothing for file stores.
func (s *FileStore) Close() error { return nil }

var _ Store = (*FileStore)(nil)
