package shop

import (
	"sync"
)

// Locker serializes event processing per user.
type Locker interface {
	Lock(userID int64) (unlock func())
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

// UserLocker holds one mutex per user with events in flight. A user's mutex is dropped
// when its last holder or waiter unlocks, so idle users cost nothing.
type UserLocker struct {
	mu    sync.Mutex
	locks map[int64]*userLock
}

// NewUserLocker creates an empty locker.
func NewUserLocker() *UserLocker {
	return &UserLocker{locks: make(map[int64]*userLock)}
}

// Lock blocks until no other event of userID is in flight and returns its release function.
// Events of different users never wait on each other.
func (l *UserLocker) Lock(userID int64) func() {
	l.mu.Lock()
	entry, ok := l.locks[userID]
	if !ok {
		entry = &userLock{}
		l.locks[userID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			entry.mu.Unlock()

			l.mu.Lock()
			entry.refs--
			if entry.refs == 0 {
				delete(l.locks, userID)
			}
			l.mu.Unlock()
		})
	}
}
