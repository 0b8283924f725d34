package gateway

import (
	"sync"

	"golang.org/x/oauth2"
)

// Session holds the bearer token and the user it belongs to. It is shared by
// every Client built on it and cleared on logout or any 401.
type Session struct {
	mu    sync.RWMutex
	token string
	user  *User
}

// NewSession returns a Session, optionally restored from a saved token.
func NewSession(token string, user *User) *Session {
	return &Session{token: token, user: user}
}

// Token returns the bearer token, or "".
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the cached user, or nil.
func (s *Session) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Active reports whether a token is held.
func (s *Session) Active() bool {
	return s.Token() != ""
}

// Set stores a new token and user.
func (s *Session) Set(token string, user *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.user = user
}

// SetUser replaces the cached user.
func (s *Session) SetUser(user *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
}

// Clear forgets the token and user.
func (s *Session) Clear() {
	s.Set("", nil)
}

// TokenSource adapts the session for oauth2.Transport.
func (s *Session) TokenSource() oauth2.TokenSource {
	return sessionTokenSource{s}
}

type sessionTokenSource struct {
	s *Session
}

func (ts sessionTokenSource) Token() (*oauth2.Token, error) {
	tok := ts.s.Token()
	if tok == "" {
		return nil, ErrNoSession
	}
	return &oauth2.Token{AccessToken: tok, TokenType: "Bearer"}, nil
}
