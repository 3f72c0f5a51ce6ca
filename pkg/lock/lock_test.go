package lock

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/inkpanel/pkg/errors"
)

func TestAcquireExclusive(t *testing.T) {
	l := New(t.TempDir())
	ctx := context.Background()

	first, err := l.Acquire(ctx, "inky-what")
	if err != nil {
		t.Fatalf("first Acquire: %v", err)
	}

	short, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
	defer cancel()
	if _, err := l.Acquire(short, "inky-what"); !errors.Is(err, errors.ErrCodeBusy) {
		t.Fatalf("second Acquire = %v, want BUSY", err)
	}

	other, err := l.Acquire(ctx, "png")
	if err != nil {
		t.Fatalf("different display should not block: %v", err)
	}
	defer other.Release()

	if err := first.Release(); err != nil {
		t.Fatal(err)
	}
	if err := first.Release(); err != nil {
		t.Errorf("second Release: %v", err)
	}

	again, err := l.Acquire(ctx, "inky-what")
	if err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	again.Release()
}

func TestAcquireWaitsForRelease(t *testing.T) {
	l := New(t.TempDir())
	held, err := l.Acquire(context.Background(), "memory")
	if err != nil {
		t.Fatal(err)
	}
	go func() {
		time.Sleep(150 * time.Millisecond)
		held.Release()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	k, err := l.Acquire(ctx, "memory")
	if err != nil {
		t.Fatalf("Acquire should succeed once released: %v", err)
	}
	k.Release()
}

func TestNoopLocker(t *testing.T) {
	var nilLocker *Locker
	for _, l := range []*Locker{nilLocker, New("")} {
		k, err := l.Acquire(context.Background(), "x")
		if err != nil || k.Path() != "" {
			t.Errorf("no-op Acquire = %v, %v", k, err)
		}
		if err := k.Release(); err != nil {
			t.Error(err)
		}
	}
}

func TestPathSanitized(t *testing.T) {
	l := New("/run/inkpanel")
	p := l.Path("../inky what")
	if filepath.Dir(p) != "/run/inkpanel" {
		t.Errorf("lock path %s escapes the lock dir", p)
	}
	if !strings.HasPrefix(filepath.Base(p), "inkpanel-") || !strings.HasSuffix(p, ".lock") {
		t.Errorf("unexpected lock name %s", p)
	}
}
