package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/aegisrent/aegis-console/internal/casing"
)

// Credentials are an administrator's login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a token and stores it, with the returned
// user, in the client's Session.
func (c *Client) Login(ctx context.Context, creds Credentials) (User, error) {
	var raw json.RawMessage
	if err := c.do(ctx, c.anon, http.MethodPost, "/aegis-admin/login", nil, creds, &raw); err != nil {
		return User{}, fmt.Errorf("login: %w", err)
	}

	f, err := casing.Decode(raw)
	if err != nil {
		return User{}, fmt.Errorf("login: %w", err)
	}
	token := f.String("token")
	if token == "" {
		token = f.String("accessToken")
	}
	if token == "" {
		return User{}, errors.New("login: backend returned no token")
	}

	user := userFromFields(f.Object("user"))
	c.session.Set(token, &user)
	c.logger.Info().Str("user_id", user.ID).Msg("signed in")
	return user, nil
}

// Me fetches the signed-in user and refreshes the cached copy.
func (c *Client) Me(ctx context.Context) (User, error) {
	var raw json.RawMessage
	if err := c.get(ctx, "/aegis-admin/me", nil, &raw); err != nil {
		return User{}, fmt.Errorf("get current user: %w", err)
	}
	user, err := decodeOne(raw, userFromFields)
	if err != nil {
		return User{}, fmt.Errorf("get current user: %w", err)
	}
	c.session.SetUser(&user)
	return user, nil
}

// Logout forgets the session locally. The backend holds no logout state.
func (c *Client) Logout() {
	c.session.Clear()
}

// Roles lists assignable roles.
func (c *Client) Roles(ctx context.Context) ([]Role, error) {
	var raw json.RawMessage
	if err := c.get(ctx, "/aegis-admin/roles", nil, &raw); err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	roles, err := decodeList(raw, roleFromFields)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}
