package handlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/aegisrent/aegis-console/internal/api/middleware"
	"github.com/aegisrent/aegis-console/internal/metrics"
)

type seenRequest struct {
	method, path, query, auth, cookie, forwardedFor, body string
}

func setupProxyTestRouter(t *testing.T, backend http.Handler, timeout time.Duration) (*gin.Engine, []*http.Cookie, *metrics.Metrics) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)
	target, _ := url.Parse(srv.URL + "/v1")

	sessions := newTestSessions(t)
	m := newTestMetrics(t)
	r := gin.New()
	group := r.Group(APIPrefix)
	group.Use(middleware.AuthMiddleware(sessions, zerolog.Nop()))
	NewProxyHandler(target, http.DefaultTransport, sessions, timeout, m, zerolog.Nop()).RegisterRoutes(group)
	return r, signedIn(t, sessions, "tok-1"), m
}

func TestProxy_Forwards(t *testing.T) {
	var (
		mu   sync.Mutex
		seen seenRequest
	)
	backend := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		seen = seenRequest{
			method:       r.Method,
			path:         r.URL.Path,
			query:        r.URL.RawQuery,
			auth:         r.Header.Get("Authorization"),
			cookie:       r.Header.Get("Cookie"),
			forwardedFor: r.Header.Get("X-Forwarded-For"),
			body:         string(body),
		}
		mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"result": map[string]any{"id": "c-1"}})
	})
	r, cookies, m := setupProxyTestRouter(t, backend, time.Second)

	w := httptest.NewRecorder()
	req := withCookies(httptest.NewRequest("PATCH", "/api/RentalCompanies/c-1?lang=es", strings.NewReader(`{"about":"{}"}`)), cookies)
	req.Header.Set("Authorization", "Bearer spoofed")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"id":"c-1"`) {
		t.Errorf("expected backend body passed through, got %s", w.Body.String())
	}

	mu.Lock()
	defer mu.Unlock()
	if seen.method != "PATCH" || seen.path != "/v1/RentalCompanies/c-1" || seen.query != "lang=es" {
		t.Errorf("unexpected forwarded request %+v", seen)
	}
	if seen.auth != "Bearer tok-1" {
		t.Errorf("expected session bearer token, got %q", seen.auth)
	}
	if seen.cookie != "" {
		t.Errorf("console cookie leaked to backend: %q", seen.cookie)
	}
	if seen.forwardedFor == "" {
		t.Error("expected X-Forwarded-For")
	}
	if seen.body != `{"about":"{}"}` {
		t.Errorf("unexpected body %q", seen.body)
	}
	if got := testutil.ToFloat64(m.BackendRequests.WithLabelValues(metrics.ResultOK)); got != 1 {
		t.Errorf("expected 1 ok backend request, got %f", got)
	}
}

func TestProxy_RequiresSession(t *testing.T) {
	called := false
	r, _, _ := setupProxyTestRouter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}), time.Second)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/RentalCompanies", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", w.Code)
	}
	if called {
		t.Error("backend must not be called without a session")
	}
}

func TestProxy_BackendUnauthorizedClearsSession(t *testing.T) {
	r, cookies, m := setupProxyTestRouter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "token expired"})
	}), time.Second)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, withCookies(httptest.NewRequest("GET", "/api/RentalCompanies", nil), cookies))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", w.Code)
	}
	if c := sessionCookie(w); c == nil || c.MaxAge >= 0 {
		t.Errorf("expected expired session cookie, got %+v", c)
	}
	if got := testutil.ToFloat64(m.AuthEvents.WithLabelValues(metrics.AuthExpired)); got != 1 {
		t.Errorf("expected 1 expiry event, got %f", got)
	}
	if got := testutil.ToFloat64(m.BackendRequests.WithLabelValues(metrics.ResultClientError)); got != 1 {
		t.Errorf("expected 1 client error, got %f", got)
	}
}

func TestProxy_BackendNotFoundKeepsSession(t *testing.T) {
	r, cookies, _ := setupProxyTestRouter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}), time.Second)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, withCookies(httptest.NewRequest("GET", "/api/companies/x/stripe/status", nil), cookies))

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
	if c := sessionCookie(w); c != nil {
		t.Errorf("session must survive a 404, got %+v", c)
	}
}

func TestProxy_Timeout(t *testing.T) {
	release := make(chan struct{})
	r, cookies, m := setupProxyTestRouter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}), 50*time.Millisecond)
	t.Cleanup(func() { close(release) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, withCookies(httptest.NewRequest("GET", "/api/slow", nil), cookies))

	if w.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected status 504, got %d", w.Code)
	}
	if got := testutil.ToFloat64(m.BackendRequests.WithLabelValues(metrics.ResultUnreachable)); got != 1 {
		t.Errorf("expected 1 unreachable, got %f", got)
	}
}

func TestStripPrefix(t *testing.T) {
	tests := map[string]string{
		"/api/companies": "/companies",
		"/api/":          "/",
		"/api":           "/",
	}
	for in, want := range tests {
		if got := stripPrefix(in); got != want {
			t.Errorf("stripPrefix(%q) = %q, want %q", in, got, want)
		}
	}
}
