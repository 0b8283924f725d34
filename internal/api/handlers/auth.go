package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/aegisrent/aegis-console/internal/auth"
	"github.com/aegisrent/aegis-console/internal/gateway"
	"github.com/aegisrent/aegis-console/internal/metrics"
)

// AuthHandler signs administrators in against the backend and keeps the
// backend token in the cookie session.
type AuthHandler struct {
	sessions   *auth.SessionStore
	backendURL string
	client     *http.Client
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler. client is the outbound client
// used for backend calls.
func NewAuthHandler(sessions *auth.SessionStore, backendURL string, client *http.Client, m *metrics.Metrics, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		sessions:   sessions,
		backendURL: backendURL,
		client:     client,
		metrics:    m,
		logger:     logger.With().Str("component", "auth_handler").Logger(),
	}
}

// RegisterRoutes registers auth routes on the given router group. loginGuards
// run before the login handler only.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, loginGuards ...gin.HandlerFunc) {
	r.POST("/login", append(loginGuards, h.Login)...)
	r.POST("/logout", h.Logout)
	r.GET("/me", h.Me)
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) gateway(session *gateway.Session, onUnauthorized func()) (*gateway.Client, error) {
	return gateway.New(gateway.Options{
		BaseURL:        h.backendURL,
		Session:        session,
		HTTPClient:     h.client,
		OnUnauthorized: onUnauthorized,
		Logger:         h.logger,
	})
}

// Login forwards credentials to the backend and starts a session.
// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	session := gateway.NewSession("", nil)
	gw, err := h.gateway(session, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create backend client")
		c.JSON(http.StatusInternalServerError, gin.H{"error": gateway.GenericMessage})
		return
	}

	user, err := gw.Login(c.Request.Context(), gateway.Credentials{
		Email:    strings.TrimSpace(req.Email),
		Password: req.Password,
	})
	if err != nil {
		h.metrics.RecordAuth(metrics.AuthLoginFailed)
		var apiErr *gateway.APIError
		if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError {
			h.logger.Debug().Err(err).Msg("backend rejected login")
			c.JSON(http.StatusUnauthorized, gin.H{"error": gateway.UserMessage(err)})
			return
		}
		h.logger.Error().Err(err).Msg("login failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": gateway.UserMessage(err)})
		return
	}

	sessionUser := toSessionUser(user, time.Now())
	if err := h.sessions.SetLogin(c.Request, c.Writer, session.Token(), sessionUser); err != nil {
		h.logger.Error().Err(err).Msg("failed to save session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": gateway.GenericMessage})
		return
	}

	h.metrics.RecordAuth(metrics.AuthLogin)
	h.logger.Info().Str("user_id", user.ID).Msg("administrator signed in")
	c.JSON(http.StatusOK, sessionUser)
}

// Logout ends the session. It succeeds even without one.
// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.sessions.Clear(c.Request, c.Writer); err != nil {
		h.logger.Warn().Err(err).Msg("failed to clear session")
	}
	h.metrics.RecordAuth(metrics.AuthLogout)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Me returns the cached user. With ?refresh=true the user is refetched from
// the backend first; a backend 401 ends the session.
// GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.sessions.GetUser(c.Request)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
		return
	}
	if c.Query("refresh") != "true" {
		c.JSON(http.StatusOK, user)
		return
	}

	token, err := h.sessions.Token(c.Request)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
		return
	}

	gw, err := h.gateway(gateway.NewSession(token, nil), nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create backend client")
		c.JSON(http.StatusInternalServerError, gin.H{"error": gateway.GenericMessage})
		return
	}

	fresh, err := gw.Me(c.Request.Context())
	if errors.Is(err, gateway.ErrUnauthorized) {
		h.expire(c)
		return
	}
	if err != nil {
		h.logger.Warn().Err(err).Msg("failed to refresh current user")
		c.JSON(http.StatusBadGateway, gin.H{"error": gateway.UserMessage(err)})
		return
	}

	refreshed := toSessionUser(fresh, user.AuthenticatedAt)
	if err := h.sessions.SetLogin(c.Request, c.Writer, token, refreshed); err != nil {
		h.logger.Warn().Err(err).Msg("failed to update session user")
	}
	c.JSON(http.StatusOK, refreshed)
}

// expire clears a session the backend no longer accepts.
func (h *AuthHandler) expire(c *gin.Context) {
	if err := h.sessions.Clear(c.Request, c.Writer); err != nil {
		h.logger.Warn().Err(err).Msg("failed to clear expired session")
	}
	h.metrics.RecordAuth(metrics.AuthExpired)
	c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
}

func toSessionUser(u gateway.User, at time.Time) *auth.SessionUser {
	return &auth.SessionUser{
		ID:              u.ID,
		Email:           u.Email,
		Name:            u.Name(),
		Role:            u.Role,
		CompanyID:       u.CompanyID,
		AuthenticatedAt: at,
	}
}
