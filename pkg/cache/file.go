package cache

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileBackend stores one file per key under a directory.
//
// Files are named by the SHA-256 of the key with the first two hex characters
// as a shard directory. Writes go to a temp file in the shard directory, are
// fsynced and then renamed over the previous file, so a crash mid-write leaves
// the old entry intact.
type FileBackend struct {
	dir   string
	locks sync.Map // key -> *sync.Mutex
}

// NewFileBackend creates a file backend rooted at dir.
// The directory will be created if it doesn't exist.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileBackend{dir: dir}, nil
}

// Dir returns the root directory of the backend.
func (c *FileBackend) Dir() string { return c.dir }

// fileEntry wraps stored data with its key so Keys can enumerate entries.
type fileEntry struct {
	Key  string `json:"key"`
	Data []byte `json:"data"`
}

// Get retrieves a value from the cache.
func (c *FileBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(c.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var entry fileEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false, err
	}
	if entry.Key != key {
		// hash collision or a file copied in by hand
		return nil, false, nil
	}
	return entry.Data, true, nil
}

// Set atomically replaces the value stored under key.
func (c *FileBackend) Set(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	mu := c.lock(key)
	mu.Lock()
	defer mu.Unlock()

	entryData, err := json.Marshal(fileEntry{Key: key, Data: data})
	if err != nil {
		return err
	}

	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return writeFileAtomic(path, entryData, 0o644)
}

// Delete removes a value from the cache.
func (c *FileBackend) Delete(ctx context.Context, key string) error {
	mu := c.lock(key)
	mu.Lock()
	defer mu.Unlock()

	err := os.Remove(c.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Keys walks the cache directory and returns every stored key.
// Unreadable or foreign files are skipped.
func (c *FileBackend) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		var entry fileEntry
		if json.Unmarshal(data, &entry) == nil && entry.Key != "" {
			keys = append(keys, entry.Key)
		}
		return nil
	})
	return keys, err
}

// Close does nothing for file cache.
func (c *FileBackend) Close() error {
	return nil
}

func (c *FileBackend) lock(key string) *sync.Mutex {
	mu, _ := c.locks.LoadOrStore(key, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// path converts a cache key to a file path.
// Uses a simple hash-based directory structure to avoid too many files in one dir.
func (c *FileBackend) path(key string) string {
	hash := Hash([]byte(key))
	return filepath.Join(c.dir, hash[:2], hash[2:]+".json")
}

// writeFileAtomic writes data to a temp file next to path, syncs it and
// renames it into place.
func writeFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), perm); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

var _ Backend = (*FileBackend)(nil)
