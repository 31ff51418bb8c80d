package pipeline

import "sync"

// lockTable serializes processing per session. Locks are acquired
// non-blocking: a busy session rejects the second caller instead of letting
// it run against a stale snapshot. Entries are created on demand and
// reference counted so abandoned sessions do not leak.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	held bool
	refs int
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]*lockEntry)}
}

// TryAcquire takes the session lock, or reports false if it is held.
func (t *lockTable) TryAcquire(sessionID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.locks[sessionID]
	if e == nil {
		e = &lockEntry{}
		t.locks[sessionID] = e
	}
	if e.held {
		return false
	}
	e.held = true
	e.refs++
	return true
}

func (t *lockTable) Release(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.locks[sessionID]
	if e == nil {
		return
	}
	e.held = false
	e.refs--
	if e.refs <= 0 {
		delete(t.locks, sessionID)
	}
}
