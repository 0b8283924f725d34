package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/aegisrent/aegis-console/internal/api/middleware"
	"github.com/aegisrent/aegis-console/internal/auth"
	"github.com/aegisrent/aegis-console/internal/metrics"
)

// APIPrefix is stripped from forwarded paths.
const APIPrefix = "/api"

type forwardKey struct{}

// forward is the per-request state the proxy callbacks need.
type forward struct {
	token string
	start time.Time
}

// ProxyHandler forwards signed-in API calls to the backend with the
// session's bearer token.
type ProxyHandler struct {
	proxy    *httputil.ReverseProxy
	sessions *auth.SessionStore
	timeout  time.Duration
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// NewProxyHandler creates a ProxyHandler for backend. timeout bounds each
// forwarded request; zero means none.
func NewProxyHandler(backend *url.URL, transport http.RoundTripper, sessions *auth.SessionStore, timeout time.Duration, m *metrics.Metrics, logger zerolog.Logger) *ProxyHandler {
	h := &ProxyHandler{
		sessions: sessions,
		timeout:  timeout,
		metrics:  m,
		logger:   logger.With().Str("component", "api_proxy").Logger(),
	}
	h.proxy = &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.Out.URL.Path = stripPrefix(pr.Out.URL.Path)
			if pr.Out.URL.RawPath != "" {
				pr.Out.URL.RawPath = stripPrefix(pr.Out.URL.RawPath)
			}
			pr.SetURL(backend)
			pr.SetXForwarded()

			// The console cookie is ours, not the backend's.
			pr.Out.Header.Del("Cookie")
			pr.Out.Header.Del("Authorization")
			if f, ok := pr.In.Context().Value(forwardKey{}).(*forward); ok && f.token != "" {
				pr.Out.Header.Set("Authorization", "Bearer "+f.token)
			}
		},
		Transport:      transport,
		ModifyResponse: h.modifyResponse,
		ErrorHandler:   h.errorHandler,
	}
	return h
}

// RegisterRoutes registers the catch-all forwarding route. The group must
// already require a session.
func (h *ProxyHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.Any("/*path", h.Forward)
}

// Forward proxies one request.
// ANY /api/*path
func (h *ProxyHandler) Forward(c *gin.Context) {
	ctx := context.WithValue(c.Request.Context(), forwardKey{}, &forward{
		token: middleware.GetToken(c),
		start: time.Now(),
	})
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	h.proxy.ServeHTTP(c.Writer, c.Request.WithContext(ctx))
}

func (h *ProxyHandler) modifyResponse(resp *http.Response) error {
	h.record(resp.Request.Context(), resp.StatusCode)

	if resp.StatusCode == http.StatusUnauthorized {
		// The backend no longer accepts the token; end the console session too.
		resp.Header.Add("Set-Cookie", h.sessions.ExpiredCookie().String())
		h.metrics.RecordAuth(metrics.AuthExpired)
		h.logger.Info().Str("path", resp.Request.URL.Path).Msg("backend rejected token, session cleared")
	}
	return nil
}

func (h *ProxyHandler) errorHandler(w http.ResponseWriter, r *http.Request, err error) {
	h.record(r.Context(), 0)

	status := http.StatusBadGateway
	msg := "backend unavailable"
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(r.Context().Err(), context.DeadlineExceeded) {
		status = http.StatusGatewayTimeout
		msg = "backend timed out"
	}
	h.logger.Warn().Err(err).Str("path", r.URL.Path).Msg("forwarding failed")

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}

func (h *ProxyHandler) record(ctx context.Context, status int) {
	f, ok := ctx.Value(forwardKey{}).(*forward)
	if !ok {
		return
	}
	h.metrics.RecordBackend(status, time.Since(f.start))
}

func stripPrefix(p string) string {
	p = strings.TrimPrefix(p, APIPrefix)
	if p == "" {
		return "/"
	}
	return p
}
