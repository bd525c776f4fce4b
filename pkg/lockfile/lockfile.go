// Package lockfile provides advisory, process-visible file locking used by
// the registry (C2) to guard its load-modify-save cycle against concurrent
// writers on the same host. Locks are tracked in a process-global registry
// so a crash-safe cleanup pass can release and remove them on shutdown.
package lockfile

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/stacklok/acp/pkg/logger"
)

// lockRegistry tracks every flock handle this process holds, keyed by path.
type lockRegistry struct {
	mu    sync.RWMutex
	locks map[string]*flock.Flock
}

// RegisterLock records lock under path, replacing any previous entry.
func (r *lockRegistry) RegisterLock(path string, lock *flock.Flock) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locks[path] = lock
}

// UnregisterLock removes path from the registry, if present.
func (r *lockRegistry) UnregisterLock(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.locks, path)
}

// CleanupAll unlocks and removes every tracked lock file, then clears the
// registry.
func (r *lockRegistry) CleanupAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for path, lock := range r.locks {
		if err := lock.Unlock(); err != nil {
			logger.Warnf("failed to unlock %s during cleanup: %v", path, err)
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logger.Warnf("failed to remove lock file %s during cleanup: %v", path, err)
		}
	}
	r.locks = make(map[string]*flock.Flock)
}

var globalRegistry = &lockRegistry{locks: make(map[string]*flock.Flock)}

// NewTrackedLock creates a flock.Flock for path and registers it in the
// global registry so CleanupAllLocks can find it later.
func NewTrackedLock(path string) *flock.Flock {
	lock := flock.New(path)
	globalRegistry.RegisterLock(path, lock)
	return lock
}

// ReleaseTrackedLock unlocks lock, removes its backing file, and drops it
// from the global registry. Errors are logged, not returned: release is
// best-effort cleanup, not a correctness-critical path.
func ReleaseTrackedLock(path string, lock *flock.Flock) {
	if err := lock.Unlock(); err != nil {
		logger.Warnf("failed to unlock %s: %v", path, err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Warnf("failed to remove lock file %s: %v", path, err)
	}
	globalRegistry.UnregisterLock(path)
}

// CleanupAllLocks releases every lock tracked in the global registry. Call
// on graceful shutdown.
func CleanupAllLocks() {
	globalRegistry.CleanupAll()
}

// CleanupStaleLocks scans dirs for "*.lock" files older than maxAge and
// removes any that are not currently held by another process. A file that
// can still be locked (i.e. no other process holds it) is stale; one that
// fails to lock is presumed active and left alone.
func CleanupStaleLocks(dirs []string, maxAge time.Duration) {
	cutoff := time.Now().Add(-maxAge)

	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}

		for _, entry := range entries {
			if entry.IsDir() || filepath.Ext(entry.Name()) != ".lock" {
				continue
			}

			path := filepath.Join(dir, entry.Name())
			info, err := entry.Info()
			if err != nil || info.ModTime().After(cutoff) {
				continue
			}

			lock := flock.New(path)
			locked, err := lock.TryLock()
			if err != nil || !locked {
				continue
			}

			lock.Unlock()
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				logger.Warnf("failed to remove stale lock file %s: %v", path, err)
			}
		}
	}
}
