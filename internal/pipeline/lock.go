package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"apd/internal/config"
)

// RunLock serializes pipeline runs across processes. One process drives the
// ledger at a time; a second invocation fails fast instead of interleaving
// transitions.
type RunLock struct {
	lock *flock.Flock
}

// AcquireRunLock takes the run lock non-blocking. The caller must Release.
func AcquireRunLock(cfg *config.Config) (*RunLock, error) {
	dir := cfg.Paths.LogDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("preparing lock directory: %w", err)
	}
	lock := flock.New(filepath.Join(dir, "apd.lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring run lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another run is already active (lock held at %s)", lock.Path())
	}
	return &RunLock{lock: lock}, nil
}

// Release drops the lock. Safe to call once.
func (r *RunLock) Release() error {
	if r == nil || r.lock == nil {
		return nil
	}
	return r.lock.Unlock()
}
