// Package mountlock guards the mount source's hidden backend directory
// with an exclusive file lock for the duration of mount-time reconciliation,
// preventing two mount processes from reconciling the same source directory
// concurrently (§5 shared-resource policy).
package mountlock

import (
	"fmt"

	"github.com/gofrs/flock"
)

// Guard wraps a file lock on <source>/.backend/mount.lock.
type Guard struct {
	lock *flock.Flock
}

// Acquire tries to take an exclusive lock at lockPath. It fails fast if the
// lock is already held rather than blocking, since the system has no
// notion of queued mounts waiting their turn.
func Acquire(lockPath string) (*Guard, error) {
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire mount lock at %s: %w", lockPath, err)
	}
	if !ok {
		return nil, fmt.Errorf("mount lock at %s is already held by another process", lockPath)
	}
	return &Guard{lock: lock}, nil
}

// Release drops the lock. Safe to call once; the Backend calls it exactly
// once after mount-time reconciliation completes.
func (g *Guard) Release() error {
	return g.lock.Unlock()
}
