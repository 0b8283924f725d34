// Package httpclient builds the outbound HTTP transport shared by the backend
// gateway and the server's request forwarder.
package httpclient

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/proxy"

	"github.com/aegisrent/aegis-console/internal/config"
)

// DefaultTimeout is the default HTTP client timeout.
const DefaultTimeout = 30 * time.Second

// Options configures the HTTP client.
type Options struct {
	// Timeout for HTTP requests (default: 30s)
	Timeout time.Duration
	// ProxyConfig contains proxy settings
	ProxyConfig *config.ProxyConfig
	// UserAgent is sent on every request when set.
	UserAgent string
}

// New creates an HTTP client with optional proxy support.
func New(opts Options) (*http.Client, error) {
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}

	rt, err := NewTransport(opts)
	if err != nil {
		return nil, err
	}

	return &http.Client{
		Timeout:   opts.Timeout,
		Transport: rt,
	}, nil
}

// NewTransport returns the round tripper New uses, for callers that wrap it
// or hand it to a reverse proxy.
func NewTransport(opts Options) (http.RoundTripper, error) {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	if opts.ProxyConfig.HasProxy() {
		if err := configureProxy(transport, opts.ProxyConfig); err != nil {
			return nil, fmt.Errorf("configure proxy: %w", err)
		}
	}

	if opts.UserAgent == "" {
		return transport, nil
	}
	return &userAgent{next: transport, value: opts.UserAgent}, nil
}

type userAgent struct {
	next  http.RoundTripper
	value string
}

func (u *userAgent) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return u.next.RoundTrip(req)
	}
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", u.value)
	return u.next.RoundTrip(req)
}

// configureProxy sets up proxy configuration on the transport.
func configureProxy(transport *http.Transport, cfg *config.ProxyConfig) error {
	// SOCKS5 takes precedence
	if cfg.SOCKS5Proxy != "" {
		return configureSocks5Proxy(transport, cfg.SOCKS5Proxy)
	}

	transport.Proxy = func(req *http.Request) (*url.URL, error) {
		return proxyFunc(req, cfg)
	}
	return nil
}

func configureSocks5Proxy(transport *http.Transport, socks5URL string) error {
	proxyURL, err := url.Parse(socks5URL)
	if err != nil {
		return fmt.Errorf("parse SOCKS5 proxy URL: %w", err)
	}

	var auth *proxy.Auth
	if proxyURL.User != nil {
		password, _ := proxyURL.User.Password()
		auth = &proxy.Auth{
			User:     proxyURL.User.Username(),
			Password: password,
		}
	}

	dialer, err := proxy.SOCKS5("tcp", proxyURL.Host, auth, proxy.Direct)
	if err != nil {
		return fmt.Errorf("create SOCKS5 dialer: %w", err)
	}

	if cd, ok := dialer.(proxy.ContextDialer); ok {
		transport.DialContext = cd.DialContext
		return nil
	}
	transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
		return dialer.Dial(network, addr)
	}
	return nil
}

// proxyFunc picks the proxy for req, honoring NoProxy.
func proxyFunc(req *http.Request, cfg *config.ProxyConfig) (*url.URL, error) {
	if shouldBypassProxy(req.URL.Host, cfg.NoProxy) {
		return nil, nil
	}

	proxyURLStr := cfg.HTTPProxy
	if req.URL.Scheme == "https" && cfg.HTTPSProxy != "" {
		proxyURLStr = cfg.HTTPSProxy
	}
	if proxyURLStr == "" {
		return nil, nil
	}
	return url.Parse(proxyURLStr)
}

// shouldBypassProxy matches host against a comma-separated NO_PROXY list of
// exact hosts, ".suffix" entries, parent domains and "*".
func shouldBypassProxy(host, noProxy string) bool {
	if noProxy == "" {
		return false
	}

	hostOnly, _, err := net.SplitHostPort(host)
	if err != nil {
		hostOnly = host
	}
	hostOnly = strings.ToLower(hostOnly)

	for _, pattern := range strings.Split(noProxy, ",") {
		pattern = strings.ToLower(strings.TrimSpace(pattern))
		switch {
		case pattern == "":
			continue
		case pattern == "*", hostOnly == pattern:
			return true
		case strings.HasPrefix(pattern, "."):
			if strings.HasSuffix(hostOnly, pattern) {
				return true
			}
		case strings.HasSuffix(hostOnly, "."+pattern):
			return true
		}
	}
	return false
}

// ProxyInfo returns a description of the configured proxy with credentials
// masked, for startup logs.
func ProxyInfo(cfg *config.ProxyConfig) string {
	if !cfg.HasProxy() {
		return "No proxy configured"
	}

	var parts []string
	if cfg.SOCKS5Proxy != "" {
		parts = append(parts, fmt.Sprintf("SOCKS5: %s", maskProxyURL(cfg.SOCKS5Proxy)))
	}
	if cfg.HTTPProxy != "" {
		parts = append(parts, fmt.Sprintf("HTTP: %s", maskProxyURL(cfg.HTTPProxy)))
	}
	if cfg.HTTPSProxy != "" {
		parts = append(parts, fmt.Sprintf("HTTPS: %s", maskProxyURL(cfg.HTTPSProxy)))
	}
	if cfg.NoProxy != "" {
		parts = append(parts, fmt.Sprintf("NoProxy: %s", cfg.NoProxy))
	}
	return strings.Join(parts, ", ")
}

func maskProxyURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	if u.User != nil {
		if _, hasPass := u.User.Password(); hasPass {
			u.User = url.UserPassword(u.User.Username(), "****")
		}
	}
	return u.String()
}
