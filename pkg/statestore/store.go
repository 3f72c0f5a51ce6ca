// Package statestore reads shared state written by sibling processes.
//
// Other tools on the panel host (a weather poller, a presence tracker) keep
// their latest readings in a small key/value store. Keys are dotted paths
// such as "weather.data" or "planty.status"; values are JSON. Two stores are
// supported: a JSON document on disk ([FileStore]) and Redis ([RedisStore]).
//
// A missing key is reported as [ErrNotFound]. The typed helpers
// [LookupString] and [LookupInto] turn both missing keys and values of the
// wrong type into SCHEMA errors, which source adapters recover from through
// the value cache.
package statestore

import (
	"context"
	stderrors "errors"
	"os"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/matzehuels/inkpanel/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrNotFound is returned when a key does not exist in the store.
var ErrNotFound = stderrors.New("key not found")

// Store looks up raw JSON values by dotted key.
type Store interface {
	Lookup(ctx context.Context, key string) ([]byte, error)
	Close() error
}

// LookupString returns the string stored under key.
func LookupString(ctx context.Context, s Store, key string) (string, error) {
	var v string
	if err := LookupInto(ctx, s, key, &v); err != nil {
		return "", err
	}
	return v, nil
}

// LookupInto decodes the value stored under key into v.
func LookupInto(ctx context.Context, s Store, key string, v any) error {
	raw, err := s.Lookup(ctx, key)
	if stderrors.Is(err, ErrNotFound) {
		return errors.Wrap(errors.ErrCodeSchema, err, "state %q", key)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeTransport, err, "state %q", key)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errors.Wrap(errors.ErrCodeSchema, err, "state %q", key)
	}
	return nil
}

// Secret returns a credential by name. The environment variable
// INKPANEL_<NAME> (dots and dashes become underscores) wins over the store,
// and a nil store is allowed.
func Secret(ctx context.Context, s Store, name string) (string, error) {
	if v, ok := os.LookupEnv(SecretEnv(name)); ok {
		return v, nil
	}
	if s == nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfig, ErrNotFound, "secret %q", name)
	}
	v, err := LookupString(ctx, s, name)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfig, err, "secret %q", name)
	}
	return v, nil
}

// SecretEnv returns the environment variable consulted for a secret.
func SecretEnv(name string) string {
	r := strings.NewReplacer(".", "_", "-", "_")
	return "INKPANEL_" + strings.ToUpper(r.Replace(name))
}

// splitKey splits a dotted key into path segments, ignoring empty ones.
func splitKey(key string) []string {
	var parts []string
	for _, p := range strings.Split(key, ".") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
