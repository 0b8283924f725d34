package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/aegisrent/aegis-console/internal/casing"
	"github.com/aegisrent/aegis-console/internal/stripestatus"
)

var _ stripestatus.Backend = (*Client)(nil)

func stripePath(companyID, action string) string {
	return "/companies/" + url.PathEscape(companyID) + "/stripe/" + action
}

// StripeStatus fetches a company's connected account status. A 404 is
// reported as stripestatus.ErrAccountNotFound.
func (c *Client) StripeStatus(ctx context.Context, companyID string) (stripestatus.Status, error) {
	var raw json.RawMessage
	if err := c.get(ctx, stripePath(companyID, "status"), nil, &raw); err != nil {
		if errors.Is(err, ErrNotFound) {
			return stripestatus.Status{}, fmt.Errorf("%w: %w", stripestatus.ErrAccountNotFound, err)
		}
		return stripestatus.Status{}, err
	}
	return stripestatus.Decode(raw)
}

// CreateStripeAccount opens a connected account.
func (c *Client) CreateStripeAccount(ctx context.Context, companyID string) error {
	return c.post(ctx, stripePath(companyID, "account"), struct{}{}, nil)
}

// SuspendStripeAccount disables the connected account.
func (c *Client) SuspendStripeAccount(ctx context.Context, companyID string) error {
	return c.post(ctx, stripePath(companyID, "suspend"), struct{}{}, nil)
}

// ReactivateStripeAccount re-enables a suspended account.
func (c *Client) ReactivateStripeAccount(ctx context.Context, companyID string) error {
	return c.post(ctx, stripePath(companyID, "reactivate"), struct{}{}, nil)
}

// DeleteStripeAccount removes the connected account.
func (c *Client) DeleteStripeAccount(ctx context.Context, companyID string) error {
	return c.delete(ctx, stripePath(companyID, "account"))
}

// StripeOnboardingLink returns a fresh hosted onboarding URL.
func (c *Client) StripeOnboardingLink(ctx context.Context, companyID string) (string, error) {
	var raw json.RawMessage
	if err := c.post(ctx, stripePath(companyID, "onboarding-link"), struct{}{}, &raw); err != nil {
		return "", err
	}

	var link string
	if err := json.Unmarshal(raw, &link); err == nil && link != "" {
		return link, nil
	}
	f, err := casing.Decode(raw)
	if err != nil {
		return "", fmt.Errorf("decode onboarding link: %w", err)
	}
	link = f.String("url")
	if link == "" {
		link = f.String("onboardingUrl")
	}
	if link == "" {
		return "", errors.New("backend returned no onboarding link")
	}
	return link, nil
}

// SyncStripeAccount asks the backend to refresh the account from Stripe.
func (c *Client) SyncStripeAccount(ctx context.Context, companyID string) error {
	return c.post(ctx, stripePath(companyID, "sync"), struct{}{}, nil)
}

// StripeSettings fetches the platform Stripe settings.
func (c *Client) StripeSettings(ctx context.Context) (StripeSettings, error) {
	var raw json.RawMessage
	if err := c.get(ctx, "/StripeSettings", nil, &raw); err != nil {
		return StripeSettings{}, fmt.Errorf("get stripe settings: %w", err)
	}
	s, err := decodeOne(raw, stripeSettingsFromFields)
	if err != nil {
		return StripeSettings{}, fmt.Errorf("get stripe settings: %w", err)
	}
	return s, nil
}

// UpdateStripeSettings stores the platform Stripe settings.
func (c *Client) UpdateStripeSettings(ctx context.Context, s StripeSettings) error {
	if err := c.put(ctx, "/StripeSettings", s, nil); err != nil {
		return fmt.Errorf("update stripe settings: %w", err)
	}
	return nil
}
