package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// cspAPI allows nothing to load. The console server only returns JSON.
const cspAPI = "default-src 'none'; frame-ancestors 'none'"

// SecurityHeaders sets the response headers every console response carries.
// Responses under one of the privatePrefixes hold session-bound data
// (company records, content documents, Stripe status) and are marked
// uncacheable.
func SecurityHeaders(privatePrefixes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cross-Origin-Resource-Policy", "same-origin")
		h.Set("Content-Security-Policy", cspAPI)

		if isHTTPS(c) {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		path := c.Request.URL.Path
		for _, p := range privatePrefixes {
			if path == p || strings.HasPrefix(path, strings.TrimSuffix(p, "/")+"/") {
				h.Set("Cache-Control", "no-store")
				h.Set("Pragma", "no-cache")
				break
			}
		}

		c.Next()
	}
}

// isHTTPS reports whether the client reached us over TLS, directly or
// through a terminating load balancer.
func isHTTPS(c *gin.Context) bool {
	if c.Request.TLS != nil {
		return true
	}
	return strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https")
}
