package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/aegisrent/aegis-console/internal/metrics"
)

func TestMetricsEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	m, err := metrics.NewMetrics(reg)
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}
	m.RecordBackend(200, 50*time.Millisecond)

	r := gin.New()
	NewMetricsHandler(reg, zerolog.Nop()).RegisterPublicRoutes(r)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/metrics", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `aegis_backend_requests_total{result="ok"} 1`) {
		t.Errorf("expected backend counter in output, got:\n%s", w.Body.String())
	}
}
