package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/aegisrent/aegis-console/internal/casing"
)

// Setting is one platform key/value setting.
type Setting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func settingFromFields(f casing.Fields) Setting {
	return Setting{Key: f.String("key"), Value: f.String("value")}
}

// Settings lists platform settings.
func (c *Client) Settings(ctx context.Context) ([]Setting, error) {
	var raw json.RawMessage
	if err := c.get(ctx, "/settings", nil, &raw); err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	settings, err := decodeList(raw, settingFromFields)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	return settings, nil
}

// Setting fetches one setting by key.
func (c *Client) Setting(ctx context.Context, key string) (Setting, error) {
	var raw json.RawMessage
	if err := c.get(ctx, "/settings/"+url.PathEscape(key), nil, &raw); err != nil {
		return Setting{}, fmt.Errorf("get setting %s: %w", key, err)
	}
	s, err := decodeOne(raw, settingFromFields)
	if err != nil {
		return Setting{}, fmt.Errorf("get setting %s: %w", key, err)
	}
	if s.Key == "" {
		s.Key = key
	}
	return s, nil
}

// SetSetting stores one setting.
func (c *Client) SetSetting(ctx context.Context, key, value string) error {
	if err := c.put(ctx, "/settings/"+url.PathEscape(key), Setting{Key: key, Value: value}, nil); err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}
