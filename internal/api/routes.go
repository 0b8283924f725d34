// Package api provides the HTTP surface of the console server: session
// login against the backend and authenticated forwarding of API calls.
package api

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/ulule/limiter/v3"

	"github.com/aegisrent/aegis-console/internal/api/handlers"
	"github.com/aegisrent/aegis-console/internal/api/middleware"
	"github.com/aegisrent/aegis-console/internal/auth"
	"github.com/aegisrent/aegis-console/internal/config"
	"github.com/aegisrent/aegis-console/internal/metrics"
)

// maxBodyBytes caps request bodies; content documents are the largest.
const maxBodyBytes = 10 << 20

// loginAttemptsPerMinute bounds credential guessing per client IP.
const loginAttemptsPerMinute = 10

// Config holds configuration for the API router.
type Config struct {
	Environment config.Environment
	// AllowedOrigins for CORS. Empty means all origins allowed outside production.
	AllowedOrigins []string
	// BackendURL is the rental platform API root.
	BackendURL string
	// BackendTimeout bounds each forwarded request.
	BackendTimeout time.Duration
	// RateLimitRequests is the number of requests allowed per period.
	RateLimitRequests int64
	RateLimitPeriod   time.Duration
	// Version information for the version endpoint.
	Version   string
	Commit    string
	BuildDate string
}

// DefaultConfig returns a Config with sensible defaults for development.
func DefaultConfig() Config {
	return Config{
		Environment:       config.EnvDevelopment,
		BackendTimeout:    30 * time.Second,
		RateLimitRequests: 100,
		RateLimitPeriod:   time.Minute,
		Version:           "dev",
		Commit:            "unknown",
		BuildDate:         "unknown",
	}
}

// Deps are the collaborators the router wires together.
type Deps struct {
	Sessions *auth.SessionStore
	// Transport carries forwarded and login traffic to the backend.
	Transport http.RoundTripper
	// LimiterStore backs rate limiting. Nil means in-memory.
	LimiterStore limiter.Store
	Metrics      *metrics.Metrics
	Gatherer     prometheus.Gatherer
}

// Router wraps a Gin engine with configured middleware and routes.
type Router struct {
	Engine *gin.Engine
	logger zerolog.Logger
}

// NewRouter creates a new Router.
func NewRouter(cfg Config, deps Deps, logger zerolog.Logger) (*Router, error) {
	backend, err := url.Parse(cfg.BackendURL)
	if err != nil || backend.Scheme == "" || backend.Host == "" {
		return nil, fmt.Errorf("invalid backend URL %q", cfg.BackendURL)
	}
	transport := deps.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	client := &http.Client{Transport: transport, Timeout: cfg.BackendTimeout}

	r := &Router{
		Engine: gin.New(),
		logger: logger.With().Str("component", "router").Logger(),
	}

	// Global middleware
	r.Engine.Use(gin.Recovery())
	r.Engine.Use(middleware.RequestID())
	r.Engine.Use(middleware.RequestLogger(logger))
	r.Engine.Use(deps.Metrics.Middleware())
	r.Engine.Use(middleware.SecurityHeaders(handlers.APIPrefix, "/auth"))
	r.Engine.Use(middleware.CORS(cfg.AllowedOrigins, cfg.Environment, logger))
	r.Engine.Use(middleware.BodyLimit(maxBodyBytes))

	rateLimiter, err := middleware.NewRateLimiter("global", cfg.RateLimitRequests, cfg.RateLimitPeriod, deps.LimiterStore, nil)
	if err != nil {
		return nil, err
	}
	r.Engine.Use(rateLimiter)

	// Public endpoints
	handlers.NewHealthHandler(handlers.HTTPPinger{URL: backend.String(), Client: client}, logger).RegisterPublicRoutes(r.Engine)
	handlers.NewVersionHandler(handlers.VersionInfo{
		Version:     cfg.Version,
		Commit:      cfg.Commit,
		BuildDate:   cfg.BuildDate,
		Environment: string(cfg.Environment),
	}).RegisterPublicRoutes(r.Engine)
	if deps.Gatherer != nil {
		handlers.NewMetricsHandler(deps.Gatherer, logger).RegisterPublicRoutes(r.Engine)
	}

	// Auth routes (no session required)
	loginLimiter, err := middleware.NewRateLimiter("login", loginAttemptsPerMinute, time.Minute, deps.LimiterStore, func(*gin.Context) {
		deps.Metrics.RecordAuth(metrics.AuthRateLimited)
	})
	if err != nil {
		return nil, err
	}
	authGroup := r.Engine.Group("/auth")
	authHandler := handlers.NewAuthHandler(deps.Sessions, backend.String(), client, deps.Metrics, logger)
	authHandler.RegisterRoutes(authGroup, loginLimiter)

	// Forwarded API (session required)
	apiGroup := r.Engine.Group(handlers.APIPrefix)
	apiGroup.Use(middleware.AuthMiddleware(deps.Sessions, logger))
	handlers.NewProxyHandler(backend, transport, deps.Sessions, cfg.BackendTimeout, deps.Metrics, logger).RegisterRoutes(apiGroup)

	return r, nil
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.Engine.ServeHTTP(w, req)
}
