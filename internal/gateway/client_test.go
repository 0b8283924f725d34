package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, token string) (*Client, *Session) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	session := NewSession(token, nil)
	c, err := New(Options{
		BaseURL: srv.URL,
		Session: session,
		Logger:  zerolog.Nop(),
	})
	require.NoError(t, err)
	return c, session
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, body)
}

func TestNew_InvalidURL(t *testing.T) {
	for _, u := range []string{"", "api.example.com", "://bad"} {
		_, err := New(Options{BaseURL: u})
		assert.Error(t, err, u)
	}
}

func TestClient_BearerHeader(t *testing.T) {
	var auth string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, `[]`)
	}, "tok-123")

	_, err := c.Companies(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", auth)
}

func TestClient_NoSession(t *testing.T) {
	called := false
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	}, "")

	_, err := c.Companies(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
	assert.False(t, called, "no request is sent without a token")
}

func TestClient_EnvelopeUnwrap(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bare", `{"id":"c1","name":"Acme"}`},
		{"envelope", `{"result":{"id":"c1","name":"Acme"},"reason":null,"message":"ok"}`},
		{"pascal envelope", `{"Result":{"Id":"c1","Name":"Acme"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, tt.body)
			}, "tok")

			company, err := c.Company(context.Background(), "c1")
			require.NoError(t, err)
			assert.Equal(t, "c1", company.ID)
			assert.Equal(t, "Acme", company.Name)
		})
	}
}

func TestUnwrap(t *testing.T) {
	assert.JSONEq(t, `{"a":1}`, string(unwrap([]byte(`{"result":{"a":1}}`))))
	assert.JSONEq(t, `{"result":null,"a":1}`, string(unwrap([]byte(`{"result":null,"a":1}`))))
	assert.JSONEq(t, `[1,2]`, string(unwrap([]byte(`[1,2]`))))
	assert.JSONEq(t, `"x"`, string(unwrap([]byte(`{"result":"x"}`))))
	assert.Empty(t, unwrap([]byte("  ")))
}

func TestClient_Unauthorized(t *testing.T) {
	signedOut := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"message":"token expired"}`)
	}))
	defer srv.Close()

	session := NewSession("stale", &User{ID: "u1"})
	c, err := New(Options{
		BaseURL:        srv.URL,
		Session:        session,
		OnUnauthorized: func() { signedOut++ },
		Logger:         zerolog.Nop(),
	})
	require.NoError(t, err)

	_, err = c.Companies(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 1, signedOut)
	assert.False(t, session.Active())
	assert.Nil(t, session.User())

	// Later calls fail locally without reaching the backend.
	_, err = c.Companies(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Equal(t, 1, signedOut)
}

func TestClient_APIError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/companies/missing":
			writeJSON(w, http.StatusNotFound, `{"message":"Company not found","reason":"NotFound"}`)
		default:
			writeJSON(w, http.StatusInternalServerError, `<html>oops</html>`)
		}
	}, "tok")

	_, err := c.Company(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Company not found", apiErr.Message)
	assert.Equal(t, "NotFound", apiErr.Reason)
	assert.Equal(t, "Company not found", UserMessage(err))

	_, err = c.Company(context.Background(), "boom")
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, GenericMessage, UserMessage(err))
}

func TestLogin(t *testing.T) {
	var got Credentials
	c, session := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/aegis-admin/login", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusOK, `{"result":{"Token":"fresh","User":{"Id":"u1","Email":"ops@example.com","Role":{"Name":"SuperAdmin"}}}}`)
	}, "")

	user, err := c.Login(context.Background(), Credentials{Email: "ops@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", got.Email)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "SuperAdmin", user.Role)
	assert.Equal(t, "fresh", session.Token())
	assert.Equal(t, "u1", session.User().ID)
}

func TestLogin_BadCredentialsKeepsSession(t *testing.T) {
	signedOut := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"message":"Invalid credentials"}`)
	}))
	defer srv.Close()

	c, err := New(Options{BaseURL: srv.URL, OnUnauthorized: func() { signedOut = true }, Logger: zerolog.Nop()})
	require.NoError(t, err)

	_, err = c.Login(context.Background(), Credentials{Email: "x", Password: "y"})
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, "Invalid credentials", UserMessage(err))
	assert.False(t, signedOut)
}

func TestMe_RefreshesCachedUser(t *testing.T) {
	c, session := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"id":"u1","email":"ops@example.com","firstName":"Ana","lastName":"Lima"}`)
	}, "tok")

	user, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ana Lima", user.Name())
	assert.Equal(t, "Ana Lima", session.User().Name())
}
