package catalog

import (
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/verte-zerg/rfpick/internal/model"
)

// Lock takes an exclusive advisory lock on a station directory so that two
// reviews of the same station cannot interleave deletions. The lock file
// lives in lockDir, keyed by the station directory's absolute path, so the
// data directory is left untouched. The caller must Unlock the returned lock.
func Lock(dir, lockDir string) (*flock.Flock, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: station dir: %w", model.ErrInvalidInput, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", model.ErrInvalidInput, dir)
	}
	if err := os.MkdirAll(lockDir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	path, err := lockPath(dir, lockDir)
	if err != nil {
		return nil, err
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", dir, err)
	}
	if !ok {
		return nil, fmt.Errorf("station %s is already under review", dir)
	}
	return lock, nil
}

func lockPath(dir, lockDir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", dir, err)
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(filepath.Clean(abs)))
	return filepath.Join(lockDir, fmt.Sprintf("%s-%016x.lock", filepath.Base(abs), h.Sum64())), nil
}
