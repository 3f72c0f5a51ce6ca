package statestore

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/inkpanel/pkg/errors"
)

const cabinetDoc = `{
	"weather": {"data": {"current_temperature": 71.6, "current_conditions_icon": "partly-cloudy-day"}},
	"planty": {"status": "in"},
	"smtp": {"password": "hunter2"},
	"empty": null
}`

func writeDoc(t *testing.T, body string) *FileStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return NewFileStore(path)
}

func TestFileStoreLookup(t *testing.T) {
	s := writeDoc(t, cabinetDoc)
	ctx := context.Background()

	status, err := LookupString(ctx, s, "planty.status")
	if err != nil || status != "in" {
		t.Errorf("planty.status = %q, %v", status, err)
	}

	var weather struct {
		Temp float64 `json:"current_temperature"`
		Icon string  `json:"current_conditions_icon"`
	}
	if err := LookupInto(ctx, s, "weather.data", &weather); err != nil {
		t.Fatalf("weather.data: %v", err)
	}
	if weather.Temp != 71.6 || weather.Icon != "partly-cloudy-day" {
		t.Errorf("weather.data = %+v", weather)
	}
}

func TestFileStoreMissing(t *testing.T) {
	ctx := context.Background()
	s := writeDoc(t, cabinetDoc)

	for _, key := range []string{"planty.mood", "nope", "planty.status.deeper", "empty"} {
		if _, err := s.Lookup(ctx, key); !stderrors.Is(err, ErrNotFound) {
			t.Errorf("Lookup(%q) error = %v, want ErrNotFound", key, err)
		}
	}

	missing := NewFileStore(filepath.Join(t.TempDir(), "absent.json"))
	if _, err := missing.Lookup(ctx, "planty.status"); !stderrors.Is(err, ErrNotFound) {
		t.Errorf("missing file error = %v, want ErrNotFound", err)
	}
}

func TestLookupErrorCodes(t *testing.T) {
	ctx := context.Background()
	s := writeDoc(t, cabinetDoc)

	// missing key and wrong type are both schema failures
	if _, err := LookupString(ctx, s, "planty.mood"); !errors.Is(err, errors.ErrCodeSchema) {
		t.Errorf("missing key: %v", err)
	}
	if _, err := LookupString(ctx, s, "weather.data"); !errors.Is(err, errors.ErrCodeSchema) {
		t.Errorf("wrong type: %v", err)
	}

	broken := writeDoc(t, `{"planty":`)
	if _, err := LookupString(ctx, broken, "planty.status"); !errors.Is(err, errors.ErrCodeTransport) {
		t.Errorf("unreadable document: %v", err)
	}
}

func TestSecret(t *testing.T) {
	ctx := context.Background()
	s := writeDoc(t, cabinetDoc)

	got, err := Secret(ctx, s, "smtp.password")
	if err != nil || got != "hunter2" {
		t.Errorf("Secret = %q, %v", got, err)
	}

	t.Setenv("INKPANEL_SMTP_PASSWORD", "from-env")
	got, err = Secret(ctx, s, "smtp.password")
	if err != nil || got != "from-env" {
		t.Errorf("Secret with env = %q, %v", got, err)
	}

	if _, err := Secret(ctx, nil, "mqtt.password"); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("Secret without store: %v", err)
	}
}

func TestSecretEnv(t *testing.T) {
	if got := SecretEnv("smtp.app-password"); got != "INKPANEL_SMTP_APP_PASSWORD" {
		t.Errorf("SecretEnv = %q", got)
	}
}

type fakeRedis map[string]string

func (f fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	if v, ok := f[key]; ok {
		return redis.NewStringResult(v, nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

func TestRedisStoreLookup(t *testing.T) {
	ctx := context.Background()
	s := &RedisStore{
		client: fakeRedis{
			"inkpanel:planty.status": "out",
			"inkpanel:weather.data":  `{"current_temperature": 50}`,
		},
		prefix: "inkpanel:",
	}
	defer s.Close()

	status, err := LookupString(ctx, s, "planty.status")
	if err != nil || status != "out" {
		t.Errorf("plain value = %q, %v", status, err)
	}

	var w struct {
		Temp float64 `json:"current_temperature"`
	}
	if err := LookupInto(ctx, s, "weather.data", &w); err != nil || w.Temp != 50 {
		t.Errorf("json value = %+v, %v", w, err)
	}

	if _, err := s.Lookup(ctx, "missing"); !stderrors.Is(err, ErrNotFound) {
		t.Errorf("missing key error = %v", err)
	}
}

func TestNewRedisStoreBadURL(t *testing.T) {
	if _, err := NewRedisStore("not a url", ""); err == nil {
		t.Error("expected error for invalid redis url")
	}
}
