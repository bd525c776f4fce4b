package registry

import (
	"sync"

	"github.com/gofrs/flock"

	"github.com/stacklok/acp/pkg/lockfile"
)

// lockFlock pairs a tracked *flock.Flock with an in-process mutex. The file
// lock keeps processes apart; the mutex keeps this process's goroutines
// apart, since a Flock that already holds its lock returns from Lock at once.
type lockFlock struct {
	mu sync.Mutex
	f  *flock.Flock
}

func newLockFlock(path string) *lockFlock {
	return &lockFlock{f: lockfile.NewTrackedLock(path)}
}

func (l *lockFlock) Lock() error {
	l.mu.Lock()
	if err := l.f.Lock(); err != nil {
		l.mu.Unlock()
		return err
	}
	return nil
}

func (l *lockFlock) Unlock() error {
	err := l.f.Unlock()
	l.mu.Unlock()
	return err
}
