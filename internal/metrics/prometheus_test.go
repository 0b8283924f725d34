package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestPrometheus_RequestCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}

	t.Run("counts by route and status", func(t *testing.T) {
		m.RecordRequest("GET", "/api/*path", 200, time.Millisecond)
		m.RecordRequest("GET", "/api/*path", 200, time.Millisecond)
		m.RecordRequest("GET", "/api/*path", 502, time.Millisecond)

		if val := getCounterValue(t, m.Requests, "GET", "/api/*path", "200"); val != 2 {
			t.Errorf("expected 2, got %f", val)
		}
		if val := getCounterValue(t, m.Requests, "GET", "/api/*path", "502"); val != 1 {
			t.Errorf("expected 1, got %f", val)
		}
	})

	t.Run("unmatched routes share a label", func(t *testing.T) {
		m.RecordRequest("GET", "", 404, time.Millisecond)

		if val := getCounterValue(t, m.Requests, "GET", "unmatched", "404"); val != 1 {
			t.Errorf("expected 1, got %f", val)
		}
	})
}

func TestPrometheus_BackendRequests(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}

	m.RecordBackend(200, 100*time.Millisecond)
	m.RecordBackend(204, 200*time.Millisecond)
	m.RecordBackend(404, time.Millisecond)
	m.RecordBackend(0, time.Second)

	if val := getCounterValue(t, m.BackendRequests, ResultOK); val != 2 {
		t.Errorf("expected 2 ok, got %f", val)
	}
	if val := getCounterValue(t, m.BackendRequests, ResultClientError); val != 1 {
		t.Errorf("expected 1 client error, got %f", val)
	}
	if val := getCounterValue(t, m.BackendRequests, ResultUnreachable); val != 1 {
		t.Errorf("expected 1 unreachable, got %f", val)
	}

	count, sum := getHistogramValues(t, m.BackendDuration, ResultOK)
	if count != 2 {
		t.Errorf("expected count 2, got %d", count)
	}
	if sum < 0.29 || sum > 0.31 {
		t.Errorf("expected sum 0.3, got %f", sum)
	}
}

func TestBackendResult(t *testing.T) {
	tests := map[int]string{
		0:   ResultUnreachable,
		200: ResultOK,
		302: ResultOK,
		401: ResultClientError,
		500: ResultServerError,
		503: ResultServerError,
	}
	for status, want := range tests {
		if got := BackendResult(status); got != want {
			t.Errorf("BackendResult(%d) = %q, want %q", status, got, want)
		}
	}
}

func TestPrometheus_NilSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("GET", "/", 200, time.Millisecond)
	m.RecordBackend(200, time.Millisecond)
	m.RecordAuth(AuthLogin)
}

func TestPrometheus_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/companies/:id", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	for _, id := range []string{"a", "b", "c"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/companies/"+id, nil))
	}

	if val := getCounterValue(t, m.Requests, "GET", "/companies/:id", "418"); val != 3 {
		t.Errorf("expected 3, got %f", val)
	}
}

func TestPrometheus_Registration(t *testing.T) {
	t.Run("fails on duplicate registration", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		if _, err := NewMetrics(reg); err != nil {
			t.Fatalf("first registration failed: %v", err)
		}
		if _, err := NewMetrics(reg); err == nil {
			t.Fatal("expected error on duplicate registration")
		}
	})
}

// Helper functions for extracting Prometheus metric values.

func getCounterValue(t *testing.T, counter *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	var m dto.Metric
	if err := counter.WithLabelValues(labels...).Write(&m); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func getHistogramValues(t *testing.T, hist *prometheus.HistogramVec, labels ...string) (uint64, float64) {
	t.Helper()
	observer := hist.WithLabelValues(labels...)
	var m dto.Metric
	if err := observer.(prometheus.Metric).Write(&m); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	return m.GetHistogram().GetSampleCount(), m.GetHistogram().GetSampleSum()
}
