//go:build !unix

package lock

import (
	stderrors "errors"
	"os"
)

// tryLock falls back to an exclusively created marker file. Unlike flock it
// is not released if the process dies.
func tryLock(path string) (release func() error, held bool, err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if stderrors.Is(err, os.ErrExist) {
			return nil, true, nil
		}
		return nil, false, err
	}
	f.Close()
	return func() error { return os.Remove(path) }, false, nil
}
