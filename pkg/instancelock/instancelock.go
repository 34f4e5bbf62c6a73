package instancelock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

const defaultFilename = "syncbatcher.lock"

type Lock struct {
	file *flock.Flock
}

// Acquire takes an exclusive file lock so a single syncbatcher process runs
// against the same host. It does not wait: a held lock is an error.
func Acquire(path string) (*Lock, error) {
	if path == "" {
		path = filepath.Join(os.TempDir(), defaultFilename)
	}

	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("error locking %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("another syncbatcher instance is already running (lock: %s)", path)
	}
	return &Lock{file: lock}, nil
}

func (l *Lock) Path() string {
	if l == nil || l.file == nil {
		return ""
	}
	return l.file.Path()
}

func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Unlock()
}
