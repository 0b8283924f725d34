package devproxy

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InvalidOrigin(t *testing.T) {
	_, err := New(Options{Origin: "localhost:5000"}, zerolog.Nop())
	assert.Error(t, err)
}

func TestProxy_StripsPrefix(t *testing.T) {
	var gotPath, gotQuery, gotForwarded string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotForwarded = r.Header.Get("X-Forwarded-Host")
		_, _ = io.WriteString(w, "ok")
	}))
	defer upstream.Close()

	h, err := New(Options{Origin: upstream.URL + "/"}, zerolog.Nop())
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "http://localhost:3000/api/RentalCompanies?take=10", nil)
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
	assert.Equal(t, "/RentalCompanies", gotPath)
	assert.Equal(t, "take=10", gotQuery)
	assert.Equal(t, "localhost:3000", gotForwarded)
}

func TestProxy_UpstreamDown(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	origin := upstream.URL
	upstream.Close()

	h, err := New(Options{Origin: origin}, zerolog.Nop())
	require.NoError(t, err)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/x", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestProxy_ServesSPA(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>console</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644))

	h, err := New(Options{Origin: "http://127.0.0.1:1", StaticDir: dir}, zerolog.Nop())
	require.NoError(t, err)

	tests := []struct {
		path string
		want string
	}{
		{"/app.js", "console.log(1)"},
		{"/companies/42/stripe", "<html>console</html>"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, w.Body.String())
		})
	}
}

func TestProxy_NoStaticDir(t *testing.T) {
	h, err := New(Options{Origin: "http://127.0.0.1:1"}, zerolog.Nop())
	require.NoError(t, err)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
