package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestSecurityHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SecurityHeaders("/api", "/auth"))
	ok := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) }
	r.GET("/api/companies", ok)
	r.GET("/auth/me", ok)
	r.GET("/version", ok)
	r.GET("/apiary", ok)

	serve := func(path string, mutate func(*http.Request)) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", path, nil)
		if mutate != nil {
			mutate(req)
		}
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("plain http", func(t *testing.T) {
		w := serve("/version", nil)

		expected := map[string]string{
			"X-Frame-Options":              "DENY",
			"X-Content-Type-Options":       "nosniff",
			"Referrer-Policy":              "no-referrer",
			"Cross-Origin-Resource-Policy": "same-origin",
			"Content-Security-Policy":      cspAPI,
		}
		for header, want := range expected {
			if got := w.Header().Get(header); got != want {
				t.Errorf("%s: expected %q, got %q", header, want, got)
			}
		}
		if got := w.Header().Get("Strict-Transport-Security"); got != "" {
			t.Errorf("expected no HSTS without TLS, got %q", got)
		}
		if got := w.Header().Get("Cache-Control"); got != "" {
			t.Errorf("public route should be cacheable, got Cache-Control %q", got)
		}
	})

	t.Run("tls", func(t *testing.T) {
		w := serve("/version", func(req *http.Request) { req.TLS = &tls.ConnectionState{} })
		if got := w.Header().Get("Strict-Transport-Security"); got == "" {
			t.Error("expected HSTS with TLS")
		}
	})

	t.Run("tls terminated upstream", func(t *testing.T) {
		w := serve("/version", func(req *http.Request) { req.Header.Set("X-Forwarded-Proto", "https") })
		if got := w.Header().Get("Strict-Transport-Security"); got == "" {
			t.Error("expected HSTS behind an https load balancer")
		}
	})

	t.Run("session routes are not cached", func(t *testing.T) {
		for _, path := range []string{"/api/companies", "/auth/me"} {
			if got := serve(path, nil).Header().Get("Cache-Control"); got != "no-store" {
				t.Errorf("%s: expected Cache-Control no-store, got %q", path, got)
			}
		}
		if got := serve("/apiary", nil).Header().Get("Cache-Control"); got != "" {
			t.Errorf("prefix match must stop at a path segment, got %q", got)
		}
	})
}
