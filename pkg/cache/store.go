package cache

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	jsoniter "github.com/json-iterator/go"

	"github.com/matzehuels/inkpanel/pkg/observability"
	"github.com/matzehuels/inkpanel/pkg/panel"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Entry is the last good value of one source.
type Entry struct {
	Key      panel.Key   `json:"key"`
	Value    panel.Value `json:"value"`
	StoredAt time.Time   `json:"stored_at"`
}

// Age returns how long ago the entry was written, never negative.
func (e Entry) Age(now time.Time) time.Duration {
	if age := now.Sub(e.StoredAt); age > 0 {
		return age
	}
	return 0
}

// Store is the typed value cache used by source adapters.
//
// Get never fails: an unreadable backend or a corrupt entry is logged and
// reported as a miss, because a cache problem must not cost the panel a value
// it could otherwise fetch live. Put reports errors so the caller can log them.
type Store struct {
	backend Backend
	logger  *log.Logger
	now     func() time.Time
}

// NewStore wraps backend. If backend is nil, a NullBackend is used.
// If logger is nil, the default logger is used.
func NewStore(backend Backend, logger *log.Logger) *Store {
	if backend == nil {
		backend = NewNullBackend()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Store{backend: backend, logger: logger, now: time.Now}
}

// WithClock returns a copy of the store that stamps entries using now.
func (s *Store) WithClock(now func() time.Time) *Store {
	c := *s
	c.now = now
	return &c
}

// Backend returns the underlying byte store.
func (s *Store) Backend() Backend { return s.backend }

// Get returns the cached entry for key.
func (s *Store) Get(ctx context.Context, key panel.Key) (Entry, bool) {
	data, ok, err := s.backend.Get(ctx, string(key))
	if err != nil {
		s.logger.Warn("cache read failed", "key", key, "error", err)
		observability.Cache().OnCacheMiss(ctx, string(key))
		return Entry{}, false
	}
	if !ok {
		observability.Cache().OnCacheMiss(ctx, string(key))
		return Entry{}, false
	}

	entry, err := decodeEntry(key, data)
	if err != nil {
		s.logger.Warn("ignoring corrupt cache entry", "key", key, "error", err)
		observability.Cache().OnCacheMiss(ctx, string(key))
		return Entry{}, false
	}
	observability.Cache().OnCacheHit(ctx, string(key))
	return entry, true
}

// Put stores v as the last good value for key.
func (s *Store) Put(ctx context.Context, key panel.Key, v panel.Value) error {
	if err := v.Validate(); err != nil {
		return fmt.Errorf("cache put %s: %w", key, err)
	}
	entry := Entry{Key: key, Value: v.WithFreshness(panel.Live), StoredAt: s.now().UTC()}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("cache put %s: %w", key, err)
	}
	if err := s.backend.Set(ctx, string(key), data); err != nil {
		return fmt.Errorf("cache put %s: %w", key, err)
	}
	observability.Cache().OnCacheSet(ctx, string(key), len(data))
	return nil
}

// Delete removes the entry for key.
func (s *Store) Delete(ctx context.Context, key panel.Key) error {
	return s.backend.Delete(ctx, string(key))
}

// Entries returns every decodable entry sorted by key.
func (s *Store) Entries(ctx context.Context) ([]Entry, error) {
	keys, err := s.backend.Keys(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(keys))
	for _, k := range keys {
		if e, ok := s.Get(ctx, panel.Key(k)); ok {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

// Clear removes every entry and returns how many were removed.
func (s *Store) Clear(ctx context.Context) (int, error) {
	keys, err := s.backend.Keys(ctx)
	if err != nil {
		return 0, err
	}
	for i, k := range keys {
		if err := s.backend.Delete(ctx, k); err != nil {
			return i, err
		}
	}
	return len(keys), nil
}

// Close closes the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

func decodeEntry(key panel.Key, data []byte) (Entry, error) {
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, err
	}
	if e.Key != key {
		return Entry{}, fmt.Errorf("entry key %q does not match %q", e.Key, key)
	}
	if err := e.Value.Validate(); err != nil {
		return Entry{}, err
	}
	return e, nil
}
