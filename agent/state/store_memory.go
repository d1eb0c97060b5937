package state

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
)

// MemoryStore keeps session state in process memory. Used for development
// and tests. Values are stored as encoded snapshots so callers never share
// slices with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]byte)}
}

func (s *MemoryStore) Load(ctx context.Context, sessionID string) (*SessionState, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidSession
	}

	s.mu.RLock()
	raw, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrStateNotFound
	}

	var st SessionState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("unmarshal session state: %w", err)
	}
	st.EnsureCart()
	return &st, nil
}

func (s *MemoryStore) Save(ctx context.Context, st *SessionState) error {
	if st == nil {
		return ErrNilSessionState
	}
	if strings.TrimSpace(st.SessionID) == "" {
		return ErrInvalidSession
	}
	st.EnsureCart()
	st.UpdatedAt = time.Now().UTC()

	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal session state: %w", err)
	}

	s.mu.Lock()
	s.sessions[st.SessionID] = raw
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrInvalidSession
	}
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return nil
}
