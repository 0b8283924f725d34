package middleware

import (
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// redactedParams are query parameters whose values never reach the logs.
// Stripe onboarding links carry return and refresh URLs with account state.
var redactedParams = map[string]bool{
	"token":        true,
	"access_token": true,
	"password":     true,
	"secret":       true,
	"key":          true,
	"code":         true,
	"state":        true,
	"email":        true,
	"return_url":   true,
	"refresh_url":  true,
}

// quietPaths are polled by orchestrators and scrapers; successful hits are
// logged at debug level.
var quietPaths = map[string]bool{
	"/health/live": true,
	"/metrics":     true,
}

// redactQuery replaces the values of redacted parameters with [REDACTED].
func redactQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}

	params, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "[UNPARSEABLE]"
	}

	changed := false
	for name, values := range params {
		if !redactedParams[strings.ToLower(name)] {
			continue
		}
		for i := range values {
			values[i] = "[REDACTED]"
		}
		changed = true
	}
	if !changed {
		return rawQuery
	}
	return params.Encode()
}

// RequestLogger logs one line per request. Requests that passed
// AuthMiddleware carry the user and company they were made for.
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	log := logger.With().Str("component", "http").Logger()

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := redactQuery(c.Request.URL.RawQuery)

		c.Next()

		status := c.Writer.Status()
		var event *zerolog.Event
		switch {
		case status >= 500:
			event = log.Error()
		case status >= 400:
			event = log.Warn()
		case quietPaths[path]:
			event = log.Debug()
		default:
			event = log.Info()
		}

		event = event.
			Str("request_id", c.GetString(RequestIDKey)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("route", c.FullPath()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Int("body_size", c.Writer.Size())
		if query != "" {
			event = event.Str("query", query)
		}
		if u := GetUser(c); u != nil {
			event = event.Str("user_id", u.ID)
			if u.CompanyID != "" {
				event = event.Str("company_id", u.CompanyID)
			}
		}
		event.Msg("request")
	}
}
