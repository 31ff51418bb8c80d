package sessionstore

import (
	"context"
	"sync"
	"time"

	"mediloon/models"
)

// Memory is an in-process Store used by tests. It applies the same
// version-guard semantics as the Mongo implementation.
type Memory struct {
	mu       sync.Mutex
	sessions map[string]*models.OrderSession
}

func NewMemory() *Memory {
	return &Memory{sessions: make(map[string]*models.OrderSession)}
}

func (m *Memory) Load(ctx context.Context, sessionID string) (*models.OrderSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return s.Snapshot(), nil
}

func (m *Memory) Save(ctx context.Context, session *models.OrderSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session.UpdatedAt = time.Now()
	cur, ok := m.sessions[session.SessionID]

	if session.Version == 0 {
		if ok {
			return ErrConflict
		}
		session.Version = 1
		m.sessions[session.SessionID] = session.Snapshot()
		return nil
	}

	if !ok || cur.Version != session.Version {
		return ErrConflict
	}
	session.Version++
	m.sessions[session.SessionID] = session.Snapshot()
	return nil
}

func (m *Memory) StaleAwaiting(ctx context.Context, cutoff time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id, s := range m.sessions {
		if s.Status == models.StatusAwaiting && s.LastInputAt.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
