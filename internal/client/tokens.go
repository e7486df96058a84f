package client

import "sync"

// TokenStore holds the session tokens between calls.
type TokenStore interface {
	AuthToken() string
	RefreshToken() string
	// Save replaces the auth token. An empty refresh keeps the current one.
	Save(auth, refresh string)
	Clear()
}

// MemoryTokenStore keeps tokens for the life of the process.
type MemoryTokenStore struct {
	mu      sync.RWMutex
	auth    string
	refresh string
}

func (s *MemoryTokenStore) AuthToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.auth
}

func (s *MemoryTokenStore) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refresh
}

func (s *MemoryTokenStore) Save(auth, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auth = auth
	if refresh != "" {
		s.refresh = refresh
	}
}

func (s *MemoryTokenStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auth, s.refresh = "", ""
}
