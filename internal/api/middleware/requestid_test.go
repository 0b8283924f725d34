package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(RequestIDKey))
	})

	t.Run("generated when absent", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/test", nil)
		r.ServeHTTP(w, req)

		id := w.Header().Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			t.Fatalf("expected a uuid, got %q", id)
		}
		if w.Body.String() != id {
			t.Errorf("context id %q differs from header %q", w.Body.String(), id)
		}
	})

	t.Run("incoming id reused", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/test", nil)
		req.Header.Set(RequestIDHeader, "trace-42")
		r.ServeHTTP(w, req)

		if got := w.Header().Get(RequestIDHeader); got != "trace-42" {
			t.Errorf("expected trace-42, got %q", got)
		}
	})

	t.Run("oversized id replaced", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/test", nil)
		req.Header.Set(RequestIDHeader, strings.Repeat("x", 500))
		r.ServeHTTP(w, req)

		if got := w.Header().Get(RequestIDHeader); len(got) > maxRequestIDLen {
			t.Errorf("expected replacement id, got %d bytes", len(got))
		}
	})
}
