package service

import "sync"

// objectLocks serializes every mutation touching one object identity.
// Operations on different identities proceed independently; there is no
// global write lock. Entries are refcounted and dropped once the last
// holder releases, so deleted objects do not pin map entries forever.
type objectLocks struct {
	mu    sync.Mutex
	locks map[string]*objectLock
}

type objectLock struct {
	mu   sync.Mutex
	refs int
}

func newObjectLocks() *objectLocks {
	return &objectLocks{locks: map[string]*objectLock{}}
}

// acquire locks the mutex for key and returns its release func.
func (l *objectLocks) acquire(key string) func() {
	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &objectLock{}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}
