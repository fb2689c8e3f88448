package client

import "sync"

const tokenKey = "auth_token"

// Session holds the shared bearer token. It is the single writer for auth
// state: the transport reads it, controllers clear it on an auth failure.
type Session struct {
	mu      sync.RWMutex
	token   string
	storage Storage
}

// NewSession creates a session. A non-nil storage makes the token survive
// restarts; pass nil for a purely in-memory session.
func NewSession(storage Storage) *Session {
	s := &Session{storage: storage}
	if storage != nil {
		if tok, ok := storage.Get(tokenKey); ok {
			s.token = tok
		}
	}
	return s
}

// Token returns the current bearer token, or "" when logged out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// SetToken stores a new bearer token.
func (s *Session) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	if s.storage != nil {
		s.storage.Set(tokenKey, token)
	}
}

// Clear drops the token, logging the session out.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	if s.storage != nil {
		s.storage.Delete(tokenKey)
	}
}

// Authenticated reports whether a token is present.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}
