package memory

import (
	"context"
	"sync"

	domsession "example.com/storefront/internal/domain/session"
)

// Storage keeps session values in process memory. Values are lost on restart.
type Storage struct {
	mu       sync.RWMutex
	sessions map[string]map[string]string
}

func NewStorage() *Storage {
	return &Storage{sessions: make(map[string]map[string]string)}
}

func (s *Storage) Get(ctx context.Context, sessionID, key string) (string, bool, error) {
	if sessionID == "" {
		return "", false, domsession.ErrMissingSession
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.sessions[sessionID][key]
	return v, ok, nil
}

func (s *Storage) Set(ctx context.Context, sessionID, key, value string) error {
	if sessionID == "" {
		return domsession.ErrMissingSession
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	values := s.sessions[sessionID]
	if values == nil {
		values = make(map[string]string)
		s.sessions[sessionID] = values
	}
	values[key] = value
	return nil
}

func (s *Storage) Delete(ctx context.Context, sessionID string, keys ...string) error {
	if sessionID == "" {
		return domsession.ErrMissingSession
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	values := s.sessions[sessionID]
	for _, key := range keys {
		delete(values, key)
	}
	if len(values) == 0 {
		delete(s.sessions, sessionID)
	}
	return nil
}
