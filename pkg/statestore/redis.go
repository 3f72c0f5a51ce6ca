package statestore

import (
	"context"
	stderrors "errors"

	"github.com/redis/go-redis/v9"
)

// stringGetter is the part of a redis client used by RedisStore.
type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisStore reads keys from Redis with GET <prefix><key>.
//
// Values are expected to be JSON. A value that is not valid JSON is returned
// as a JSON string, so plain flags such as "in" written with SET work too.
type RedisStore struct {
	client stringGetter
	closer func() error
	prefix string
}

// NewRedisStore connects to the Redis server at url
// (redis://[user:pass@]host:port/db).
func NewRedisStore(url, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	return &RedisStore{client: client, closer: client.Close, prefix: prefix}, nil
}

// Lookup returns the raw JSON value stored under prefix+key.
func (s *RedisStore) Lookup(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !json.Valid(val) {
		return json.Marshal(string(val))
	}
	return val, nil
}

// Close closes the connection pool.
func (s *RedisStore) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

var _ Store = (*RedisStore)(nil)
