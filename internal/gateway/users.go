package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// NewUser is the payload for inviting an administrator.
type NewUser struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Password  string `json:"password,omitempty"`
	RoleID    string `json:"roleId"`
	CompanyID string `json:"companyId,omitempty"`
}

func userPath(id string) string {
	return "/users/" + url.PathEscape(id)
}

// Users lists administrators, optionally limited to one company.
func (c *Client) Users(ctx context.Context, companyID string) ([]User, error) {
	q := url.Values{}
	if companyID != "" {
		q.Set("companyId", companyID)
	}
	var raw json.RawMessage
	if err := c.get(ctx, "/users", q, &raw); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users, err := decodeList(raw, userFromFields)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// User fetches one administrator.
func (c *Client) User(ctx context.Context, id string) (User, error) {
	var raw json.RawMessage
	if err := c.get(ctx, userPath(id), nil, &raw); err != nil {
		return User{}, fmt.Errorf("get user %s: %w", id, err)
	}
	user, err := decodeOne(raw, userFromFields)
	if err != nil {
		return User{}, fmt.Errorf("get user %s: %w", id, err)
	}
	return user, nil
}

// CreateUser creates an administrator.
func (c *Client) CreateUser(ctx context.Context, in NewUser) (User, error) {
	var raw json.RawMessage
	if err := c.post(ctx, "/users", in, &raw); err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	user, err := decodeOne(raw, userFromFields)
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// SetUserRole assigns a role.
func (c *Client) SetUserRole(ctx context.Context, id, roleID string) error {
	if err := c.put(ctx, userPath(id)+"/role", map[string]string{"roleId": roleID}, nil); err != nil {
		return fmt.Errorf("set role for user %s: %w", id, err)
	}
	return nil
}

// DeleteUser removes an administrator.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	if err := c.delete(ctx, userPath(id)); err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}
	return nil
}
