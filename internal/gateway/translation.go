package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aegisrent/aegis-console/internal/casing"
	"github.com/aegisrent/aegis-console/internal/translate"
)

var _ translate.Translator = (*Client)(nil)

type translateRequest struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"targetLanguage"`
	SourceLanguage string `json:"sourceLanguage,omitempty"`
}

// Translate calls the backend translation service. Every failure wraps
// translate.ErrTranslation so a caller can tell it apart per call.
func (c *Client) Translate(ctx context.Context, text, target, source string) (string, error) {
	var raw json.RawMessage
	req := translateRequest{Text: text, TargetLanguage: target, SourceLanguage: source}
	if err := c.post(ctx, "/translation/translate", req, &raw); err != nil {
		return "", fmt.Errorf("%w: %w", translate.ErrTranslation, err)
	}

	f, err := casing.Decode(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", translate.ErrTranslation, err)
	}
	out := f.String("translation")
	if out == "" {
		out = f.String("translatedText")
	}
	return out, nil
}
