// Package gateway is the client for the rental platform backend REST API.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/aegisrent/aegis-console/internal/httpclient"
)

// maxBodySize bounds how much of a response is read.
const maxBodySize = 10 << 20

// Options configures a Client.
type Options struct {
	// BaseURL is the backend root, e.g. https://api.example.com.
	BaseURL string
	// Session supplies the bearer token. A new empty Session is used if nil.
	Session *Session
	// HTTPClient is the unauthenticated base client. Defaults to
	// httpclient.New with no proxy.
	HTTPClient *http.Client
	// OnUnauthorized runs after a 401 has cleared the session.
	OnUnauthorized func()
	Logger         zerolog.Logger
}

// Client calls the backend on behalf of one Session.
type Client struct {
	baseURL        *url.URL
	session        *Session
	anon           *http.Client
	authed         *http.Client
	onUnauthorized func()
	logger         zerolog.Logger
}

// New creates a Client.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid backend URL %q", opts.BaseURL)
	}

	anon := opts.HTTPClient
	if anon == nil {
		anon, err = httpclient.New(httpclient.Options{})
		if err != nil {
			return nil, fmt.Errorf("create http client: %w", err)
		}
	}

	session := opts.Session
	if session == nil {
		session = NewSession("", nil)
	}

	authed := *anon
	authed.Transport = &oauth2.Transport{
		Source: session.TokenSource(),
		Base:   anon.Transport,
	}

	return &Client{
		baseURL:        base,
		session:        session,
		anon:           anon,
		authed:         &authed,
		onUnauthorized: opts.OnUnauthorized,
		logger:         opts.Logger.With().Str("component", "gateway").Logger(),
	}, nil
}

// Session returns the client's session.
func (c *Client) Session() *Session {
	return c.session
}

// BaseURL returns the backend root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

func (c *Client) get(ctx context.Context, path string, query url.Values, result any) error {
	return c.do(ctx, c.authed, http.MethodGet, path, query, nil, result)
}

func (c *Client) post(ctx context.Context, path string, payload, result any) error {
	return c.do(ctx, c.authed, http.MethodPost, path, nil, payload, result)
}

func (c *Client) put(ctx context.Context, path string, payload, result any) error {
	return c.do(ctx, c.authed, http.MethodPut, path, nil, payload, result)
}

func (c *Client) patch(ctx context.Context, path string, payload, result any) error {
	return c.do(ctx, c.authed, http.MethodPatch, path, nil, payload, result)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, c.authed, http.MethodDelete, path, nil, nil, nil)
}

// do sends one request. On success the unwrapped envelope result is decoded
// into result: a *json.RawMessage receives it verbatim.
func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, query url.Values, payload, result any) error {
	u := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := hc.Do(req)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return ErrNoSession
		}
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized && hc == c.authed {
		c.logger.Warn().Str("path", path).Msg("session rejected by backend, signing out")
		c.session.Clear()
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, reason := errorDetails(data)
		return &APIError{Status: resp.StatusCode, Message: msg, Reason: reason, Path: path}
	}

	if result == nil {
		return nil
	}
	raw := unwrap(data)
	if rm, ok := result.(*json.RawMessage); ok {
		*rm = append((*rm)[:0], raw...)
		return nil
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
