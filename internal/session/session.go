// Package session provides session-keyed storage for conversation state.
//
// Every active conversation owns exactly one SessionState, keyed by session
// ID. Managers create state lazily on first access and guarantee at most one
// in-flight turn mutates a given session at a time via per-session locks.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/BTreeMap/FinAssist/internal/models"
)

// Manager defines session state storage operations.
type Manager interface {
	// Get retrieves the session state for the given ID, creating a fresh
	// record at the initial step if none exists.
	Get(ctx context.Context, sessionID string) (*models.SessionState, error)

	// Save persists the session state.
	Save(ctx context.Context, state *models.SessionState) error

	// Delete removes the session state entirely.
	Delete(ctx context.Context, sessionID string) error

	// Lock acquires the per-session mutex and returns its release function.
	// Callers must hold the lock for the duration of a turn.
	Lock(sessionID string) func()
}

// keyedLocks provides one mutex per session ID. Entries are reference
// counted and removed once no holder or waiter remains, so the map only
// grows with concurrently active sessions.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[string]*lockEntry)}
}

func (k *keyedLocks) acquire(key string) func() {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &lockEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// InMemoryManager stores session state in process memory. It is the default
// backend for single-instance deployments and tests. Records live until
// deleted; deployments that need idle-session expiry use the Redis backend,
// which carries a TTL.
type InMemoryManager struct {
	mu       sync.RWMutex
	sessions map[string]*models.SessionState
	locks    *keyedLocks
}

// NewInMemoryManager creates an empty in-memory session manager.
func NewInMemoryManager() *InMemoryManager {
	return &InMemoryManager{
		sessions: make(map[string]*models.SessionState),
		locks:    newKeyedLocks(),
	}
}

// Get retrieves the session state, creating a fresh record if none exists.
func (m *InMemoryManager) Get(ctx context.Context, sessionID string) (*models.SessionState, error) {
	m.mu.RLock()
	state, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if !ok {
		slog.Debug("session.Get: creating new session", "sessionID", sessionID)
		return models.NewSessionState(sessionID), nil
	}
	return state.Clone(), nil
}

// Save persists the session state.
func (m *InMemoryManager) Save(ctx context.Context, state *models.SessionState) error {
	if state.SessionID == "" {
		return models.ErrEmptySessionID
	}
	m.mu.Lock()
	m.sessions[state.SessionID] = state.Clone()
	m.mu.Unlock()
	return nil
}

// Delete removes the session state entirely.
func (m *InMemoryManager) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()
	return nil
}

// Lock acquires the per-session mutex and returns its release function.
func (m *InMemoryManager) Lock(sessionID string) func() {
	return m.locks.acquire(sessionID)
}
