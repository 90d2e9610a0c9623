package state

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	session Session
	touched time.Time
}

type memoryManager struct {
	mu       sync.RWMutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[int64]*memoryEntry
}

// NewMemoryManager constructs an in-process Manager. A positive ttl expires
// conversations that have not been written for that long.
func NewMemoryManager(ttl time.Duration) Manager {
	return &memoryManager{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[int64]*memoryEntry),
	}
}

// lookup returns the live entry for userID; callers hold at least a read lock.
func (m *memoryManager) lookup(userID int64) (*memoryEntry, bool) {
	e, ok := m.sessions[userID]
	if !ok {
		return nil, false
	}
	if m.ttl > 0 && m.now().Sub(e.touched) > m.ttl {
		return nil, false
	}
	return e, true
}

// entry returns a writable entry, replacing an expired one; callers hold the write lock.
func (m *memoryManager) entry(userID int64) *memoryEntry {
	e, ok := m.lookup(userID)
	if !ok {
		e = &memoryEntry{session: Session{State: StateIdle, TempData: make(map[string]string)}}
		m.sessions[userID] = e
	}
	e.touched = m.now()
	return e
}

// GetState returns the current state of a user, or StateIdle if none exists.
func (m *memoryManager) GetState(_ context.Context, userID int64) (State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.lookup(userID); ok {
		return e.session.State, nil
	}
	return StateIdle, nil
}

// SetState sets the state for the given user, creating the session if necessary.
func (m *memoryManager) SetState(_ context.Context, userID int64, st State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entry(userID).session.State = st
	return nil
}

// SetTemp stores a temporary key/value pair for the given user.
func (m *memoryManager) SetTemp(_ context.Context, userID int64, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entry(userID).session.TempData[key] = value
	return nil
}

// GetTemp retrieves a temporary value by key for the given user.
func (m *memoryManager) GetTemp(_ context.Context, userID int64, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.lookup(userID)
	if !ok {
		return "", false, nil
	}
	v, ok := e.session.TempData[key]
	return v, ok, nil
}

// Clear removes the entire session for a user.
func (m *memoryManager) Clear(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}
