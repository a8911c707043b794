// Package capacity serializes capacity-changing operations per organization.
package capacity

import (
	"sync"

	"github.com/google/uuid"
)

// Locker hands out one mutex per organization. Entries are dropped once no caller holds or waits on them.
type Locker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// NewLocker creates a new Locker
func NewLocker() *Locker {
	return &Locker{locks: make(map[uuid.UUID]*entry)}
}

// Lock blocks until the organization's lock is held and returns the function that releases it
func (l *Locker) Lock(orgID uuid.UUID) (unlock func()) {
	l.mu.Lock()
	e, ok := l.locks[orgID]
	if !ok {
		e = &entry{}
		l.locks[orgID] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()

			l.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(l.locks, orgID)
			}
			l.mu.Unlock()
		})
	}
}

// Len returns the number of organizations with a held or awaited lock
func (l *Locker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
