// Package auth keeps the console's signed-in state in an encrypted cookie
// session.
package auth

import (
	"crypto/sha256"
	"encoding/gob"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"
)

func init() {
	gob.Register(time.Time{})
}

const (
	// SessionName is the name of the session cookie.
	SessionName = "aegis_session"
	// TokenKey is the session key for the backend bearer token.
	TokenKey = "backend_token"
	// UserIDKey is the session key for the signed-in user ID.
	UserIDKey = "user_id"
	// EmailKey is the session key for the user's email.
	EmailKey = "email"
	// NameKey is the session key for the user's display name.
	NameKey = "name"
	// RoleKey is the session key for the user's role.
	RoleKey = "role"
	// CompanyIDKey is the session key for the user's company, if any.
	CompanyIDKey = "company_id"
	// AuthenticatedAtKey is the session key for when the user signed in.
	AuthenticatedAtKey = "authenticated_at"
)

// ErrNoSession is returned when the request carries no signed-in session.
var ErrNoSession = errors.New("no user in session")

// SessionConfig holds session store configuration.
type SessionConfig struct {
	Secret     []byte
	MaxAge     int  // seconds
	Secure     bool // require HTTPS
	HTTPOnly   bool // prevent JavaScript access
	SameSite   http.SameSite
	CookiePath string
}

// DefaultSessionConfig returns a SessionConfig with secure defaults.
func DefaultSessionConfig(secret []byte, secure bool) SessionConfig {
	return SessionConfig{
		Secret:     secret,
		MaxAge:     86400, // 24 hours
		Secure:     secure,
		HTTPOnly:   true,
		SameSite:   http.SameSiteLaxMode,
		CookiePath: "/",
	}
}

// SessionStore wraps a gorilla/sessions store with helper methods.
type SessionStore struct {
	store  *sessions.CookieStore
	logger zerolog.Logger
}

// NewSessionStore creates a new session store. The cookie is signed with the
// secret and encrypted with a key derived from it, since it carries the
// backend token.
func NewSessionStore(cfg SessionConfig, logger zerolog.Logger) (*SessionStore, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("session secret is required")
	}

	blockKey := sha256.Sum256(cfg.Secret)
	store := sessions.NewCookieStore(cfg.Secret, blockKey[:])
	store.Options = &sessions.Options{
		Path:     cfg.CookiePath,
		MaxAge:   cfg.MaxAge,
		HttpOnly: cfg.HTTPOnly,
		Secure:   cfg.Secure,
		SameSite: cfg.SameSite,
	}
	store.MaxAge(cfg.MaxAge)

	s := &SessionStore{
		store:  store,
		logger: logger.With().Str("component", "session").Logger(),
	}

	s.logger.Info().
		Bool("secure", cfg.Secure).
		Int("max_age", cfg.MaxAge).
		Msg("session store initialized")

	return s, nil
}

// Get retrieves a session from the request. A cookie that fails to decode
// yields a fresh session rather than an error.
func (s *SessionStore) Get(r *http.Request) (*sessions.Session, error) {
	session, err := s.store.Get(r, SessionName)
	if err != nil {
		if session != nil && session.IsNew {
			s.logger.Debug().Err(err).Msg("discarding undecodable session cookie")
			return session, nil
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

// Save saves the session to the response.
func (s *SessionStore) Save(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// SessionUser is the signed-in user as cached in the session.
type SessionUser struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Name            string    `json:"name"`
	Role            string    `json:"role,omitempty"`
	CompanyID       string    `json:"companyId,omitempty"`
	AuthenticatedAt time.Time `json:"authenticatedAt"`
}

// SetLogin stores the backend token and user after a successful login.
func (s *SessionStore) SetLogin(r *http.Request, w http.ResponseWriter, token string, user *SessionUser) error {
	if token == "" {
		return errors.New("empty backend token")
	}
	session, err := s.Get(r)
	if err != nil {
		return err
	}
	session.Values[TokenKey] = token
	session.Values[UserIDKey] = user.ID
	session.Values[EmailKey] = user.Email
	session.Values[NameKey] = user.Name
	session.Values[RoleKey] = user.Role
	session.Values[CompanyIDKey] = user.CompanyID
	session.Values[AuthenticatedAtKey] = user.AuthenticatedAt
	return s.Save(r, w, session)
}

// Token returns the backend token from the session.
func (s *SessionStore) Token(r *http.Request) (string, error) {
	session, err := s.Get(r)
	if err != nil {
		return "", err
	}
	token, ok := session.Values[TokenKey].(string)
	if !ok || token == "" {
		return "", ErrNoSession
	}
	return token, nil
}

// GetUser retrieves the signed-in user from the session.
func (s *SessionStore) GetUser(r *http.Request) (*SessionUser, error) {
	session, err := s.Get(r)
	if err != nil {
		return nil, err
	}

	if token, _ := session.Values[TokenKey].(string); token == "" {
		return nil, ErrNoSession
	}
	userID, ok := session.Values[UserIDKey].(string)
	if !ok {
		return nil, ErrNoSession
	}

	email, _ := session.Values[EmailKey].(string)
	name, _ := session.Values[NameKey].(string)
	role, _ := session.Values[RoleKey].(string)
	companyID, _ := session.Values[CompanyIDKey].(string)
	authenticatedAt, _ := session.Values[AuthenticatedAtKey].(time.Time)

	return &SessionUser{
		ID:              userID,
		Email:           email,
		Name:            name,
		Role:            role,
		CompanyID:       companyID,
		AuthenticatedAt: authenticatedAt,
	}, nil
}

// Clear removes everything from the session and expires the cookie.
func (s *SessionStore) Clear(r *http.Request, w http.ResponseWriter) error {
	session, err := s.Get(r)
	if err != nil {
		return err
	}
	for k := range session.Values {
		delete(session.Values, k)
	}
	// Set MaxAge to -1 to delete the cookie
	session.Options.MaxAge = -1
	return s.Save(r, w, session)
}

// ExpiredCookie returns a cookie that deletes the session, for responses
// written outside a session save.
func (s *SessionStore) ExpiredCookie() *http.Cookie {
	opts := *s.store.Options
	opts.MaxAge = -1
	return sessions.NewCookie(SessionName, "", &opts)
}

// IsAuthenticated checks if the session holds a backend token.
func (s *SessionStore) IsAuthenticated(r *http.Request) bool {
	_, err := s.Token(r)
	return err == nil
}
