package services

import "sync"

// EntityLocks serializes writers per entity. Allocation, accrual and correction of the same
// entity share one lock so no two of them plan against the same outstanding view; different
// entities proceed in parallel.
type EntityLocks struct {
	mu    sync.Mutex
	locks map[string]*entityLock
}

type entityLock struct {
	mu   sync.Mutex
	refs int
}

// NewEntityLocks creates an empty lock table.
func NewEntityLocks() *EntityLocks {
	return &EntityLocks{locks: make(map[string]*entityLock)}
}

// Lock blocks until entityID is held by the caller and returns the matching unlock func.
func (l *EntityLocks) Lock(entityID string) func() {
	l.mu.Lock()
	lk, ok := l.locks[entityID]
	if !ok {
		lk = &entityLock{}
		l.locks[entityID] = lk
	}
	lk.refs++
	l.mu.Unlock()

	lk.mu.Lock()
	return func() {
		lk.mu.Unlock()
		l.mu.Lock()
		lk.refs--
		if lk.refs == 0 {
			delete(l.locks, entityID)
		}
		l.mu.Unlock()
	}
}

// held reports how many callers hold or wait for entityID.
func (l *EntityLocks) held(entityID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lk, ok := l.locks[entityID]; ok {
		return lk.refs
	}
	return 0
}
