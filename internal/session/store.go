package session

import (
	"context"
	"sync"
)

// Store persists sessions and the per-owner active session pointer.
type Store interface {
	Save(ctx context.Context, session *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	ActiveID(ctx context.Context, ownerID string) (string, error)
	SetActiveID(ctx context.Context, ownerID, sessionID string) error
	ClearActiveID(ctx context.Context, ownerID string) error
}

// MemoryStore is an in-memory Store for development and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	active   map[string]string // ownerID -> sessionID
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		active:   make(map[string]string),
	}
}

func (m *MemoryStore) Save(ctx context.Context, session *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *session
	m.sessions[session.ID] = &copied
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *session
	return &copied, nil
}

func (m *MemoryStore) ActiveID(ctx context.Context, ownerID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active[ownerID], nil
}

func (m *MemoryStore) SetActiveID(ctx context.Context, ownerID, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active[ownerID] = sessionID
	return nil
}

func (m *MemoryStore) ClearActiveID(ctx context.Context, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.active, ownerID)
	return nil
}
