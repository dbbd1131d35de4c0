// SPDX-License-Identifier: MIT
// Copyright 2023 Flyvercity

package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory SessionStore used in tests and local runs
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore creates an empty in-memory session store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
	}
}

// GetSession retrieves a session copy by UasID; (nil, nil) when absent
func (m *MemoryStore) GetSession(ctx context.Context, uasid string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[uasid]
	if !ok {
		return nil, nil
	}

	return cloneSession(session), nil
}

// PutSession upserts a session document keyed by UasID
func (m *MemoryStore) PutSession(ctx context.Context, session *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[session.UasID] = cloneSession(session)
	return nil
}

// ListSessions returns copies of all stored sessions
func (m *MemoryStore) ListSessions(ctx context.Context) ([]*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sessions := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, cloneSession(session))
	}

	return sessions, nil
}

// Ping always succeeds for the in-memory store
func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func cloneSession(session *Session) *Session {
	clone := &Session{UasID: session.UasID}

	if session.UA != nil {
		ua := *session.UA
		clone.UA = &ua
	}

	if session.ADX != nil {
		adx := *session.ADX
		clone.ADX = &adx
	}

	return clone
}
