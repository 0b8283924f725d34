package gateway

import (
	"bytes"
	"encoding/json"

	"github.com/aegisrent/aegis-console/internal/casing"
)

// unwrap returns the envelope's result when the body is an object carrying a
// non-null result, and the body itself otherwise.
func unwrap(body []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed
	}
	f, err := casing.Decode(trimmed)
	if err != nil {
		return trimmed
	}
	if result, ok := f.Raw("result"); ok {
		return result
	}
	return trimmed
}

// errorDetails pulls message and reason from an error body, if it has them.
func errorDetails(body []byte) (message, reason string) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return "", ""
	}
	f, err := casing.Decode(trimmed)
	if err != nil {
		return "", ""
	}
	message = f.String("message")
	if message == "" {
		message = f.String("error")
	}
	return message, f.String("reason")
}
