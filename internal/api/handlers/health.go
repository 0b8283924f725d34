package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// HealthStatus represents the health status of a component.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthCheckResult represents the result of a health check.
type HealthCheckResult struct {
	Status   HealthStatus `json:"status"`
	Duration string       `json:"duration,omitempty"`
	Error    string       `json:"error,omitempty"`
}

// HealthResponse is the response for health check endpoints.
type HealthResponse struct {
	Status HealthStatus                  `json:"status"`
	Checks map[string]*HealthCheckResult `json:"checks,omitempty"`
}

// BackendPinger checks that the backend answers.
type BackendPinger interface {
	Ping(ctx context.Context) error
}

// HTTPPinger pings a backend URL. Any response below 500 counts as up: the
// root of an API commonly answers 404.
type HTTPPinger struct {
	URL    string
	Client *http.Client
}

// Ping sends a HEAD request to the backend root.
func (p HTTPPinger) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.URL, nil)
	if err != nil {
		return fmt.Errorf("create ping request: %w", err)
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return fmt.Errorf("ping backend: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("backend returned %d", resp.StatusCode)
	}
	return nil
}

// HealthHandler handles health-related HTTP endpoints.
type HealthHandler struct {
	backend BackendPinger
	logger  zerolog.Logger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(backend BackendPinger, logger zerolog.Logger) *HealthHandler {
	return &HealthHandler{
		backend: backend,
		logger:  logger.With().Str("component", "health_handler").Logger(),
	}
}

// RegisterPublicRoutes registers health check routes that don't require authentication.
func (h *HealthHandler) RegisterPublicRoutes(r *gin.Engine) {
	health := r.Group("/health")
	{
		health.GET("", h.Overall)
		health.GET("/live", h.Live)
	}
}

// Overall reports the server healthy when the backend answers.
// GET /health
func (h *HealthHandler) Overall(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	result := h.checkBackend(ctx)
	response := &HealthResponse{
		Status: result.Status,
		Checks: map[string]*HealthCheckResult{"backend": result},
	}

	if result.Status == HealthStatusUnhealthy {
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}
	c.JSON(http.StatusOK, response)
}

// Live reports that the process is serving.
// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, &HealthResponse{Status: HealthStatusHealthy})
}

func (h *HealthHandler) checkBackend(ctx context.Context) *HealthCheckResult {
	start := time.Now()
	err := h.backend.Ping(ctx)
	result := &HealthCheckResult{
		Status:   HealthStatusHealthy,
		Duration: time.Since(start).String(),
	}
	if err != nil {
		h.logger.Warn().Err(err).Msg("backend health check failed")
		result.Status = HealthStatusUnhealthy
		result.Error = "backend unreachable"
	}
	return result
}
