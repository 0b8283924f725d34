// Package middleware provides HTTP middleware for the console server.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/aegisrent/aegis-console/internal/auth"
)

// ContextKey is the type for context keys used by this package.
type ContextKey string

const (
	// UserContextKey is the context key for the signed-in user.
	UserContextKey ContextKey = "user"
	// TokenContextKey is the context key for the backend token.
	TokenContextKey ContextKey = "backend_token"
)

// AuthMiddleware returns a Gin middleware that requires a signed-in session.
func AuthMiddleware(sessions *auth.SessionStore, logger zerolog.Logger) gin.HandlerFunc {
	log := logger.With().Str("component", "auth_middleware").Logger()

	return func(c *gin.Context) {
		sessionUser, err := sessions.GetUser(c.Request)
		if err != nil {
			log.Debug().Err(err).Str("path", c.Request.URL.Path).Msg("unauthenticated request")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		token, err := sessions.Token(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		c.Set(string(UserContextKey), sessionUser)
		c.Set(string(TokenContextKey), token)

		log.Debug().
			Str("user_id", sessionUser.ID).
			Str("path", c.Request.URL.Path).
			Msg("authenticated request")

		c.Next()
	}
}

// GetUser returns the signed-in user set by AuthMiddleware.
func GetUser(c *gin.Context) *auth.SessionUser {
	user, ok := c.Get(string(UserContextKey))
	if !ok {
		return nil
	}
	u, _ := user.(*auth.SessionUser)
	return u
}

// GetToken returns the backend token set by AuthMiddleware.
func GetToken(c *gin.Context) string {
	return c.GetString(string(TokenContextKey))
}
