package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/aegisrent/aegis-console/internal/auth"
	"github.com/aegisrent/aegis-console/internal/metrics"
)

func newTestSessions(t *testing.T) *auth.SessionStore {
	t.Helper()
	store, err := auth.NewSessionStore(auth.DefaultSessionConfig([]byte("handler-test-secret"), false), zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to create session store: %v", err)
	}
	return store
}

func newTestMetrics(t *testing.T) *metrics.Metrics {
	t.Helper()
	m, err := metrics.NewMetrics(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}
	return m
}

// signedIn returns session cookies for a user holding token.
func signedIn(t *testing.T, sessions *auth.SessionStore, token string) []*http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	if err := sessions.SetLogin(req, w, token, &auth.SessionUser{ID: "u-1", Email: "ana@example.com", Name: "Ana"}); err != nil {
		t.Fatalf("failed to set login: %v", err)
	}
	return w.Result().Cookies()
}

func withCookies(req *http.Request, cookies []*http.Cookie) *http.Request {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

// sessionCookie finds the session cookie set on a response.
func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.SessionName {
			return c
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
