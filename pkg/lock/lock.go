// Package lock keeps two runs from pushing to the same display at once.
//
// Locks are advisory file locks in a shared directory, one file per display
// id. The operating system releases them when the process exits, so a
// crashed run never leaves a display locked.
package lock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/matzehuels/inkpanel/pkg/errors"
)

// pollInterval is how often Acquire retries a held lock.
const pollInterval = 100 * time.Millisecond

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Locker hands out display locks. A nil Locker or one with an empty
// directory never blocks.
type Locker struct {
	Dir string
}

// New returns a locker keeping its lock files in dir.
func New(dir string) *Locker {
	return &Locker{Dir: dir}
}

// Path returns the lock file for a display id.
func (l *Locker) Path(id string) string {
	name := unsafeChars.ReplaceAllString(id, "_")
	return filepath.Join(l.Dir, "inkpanel-"+name+".lock")
}

// Lock is a held display lock.
type Lock struct {
	path    string
	release func() error
}

// Path returns the lock file, or "" for a no-op lock.
func (k *Lock) Path() string { return k.path }

// Release frees the lock. It is safe to call more than once.
func (k *Lock) Release() error {
	if k == nil || k.release == nil {
		return nil
	}
	err := k.release()
	k.release = nil
	return err
}

// Acquire takes the lock for display id, waiting until ctx is done. A lock
// still held when ctx expires yields a BUSY error.
func (l *Locker) Acquire(ctx context.Context, id string) (*Lock, error) {
	if l == nil || l.Dir == "" {
		return &Lock{}, nil
	}
	if err := os.MkdirAll(l.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	path := l.Path(id)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		release, held, err := tryLock(path)
		if err != nil {
			return nil, fmt.Errorf("lock %s: %w", path, err)
		}
		if !held {
			return &Lock{path: path, release: release}, nil
		}
		select {
		case <-ctx.Done():
			return nil, errors.Wrap(errors.ErrCodeBusy, ctx.Err(), "display %s is in use by another run (%s)", id, path)
		case <-ticker.C:
		}
	}
}
