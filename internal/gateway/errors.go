package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound matches any 404 response.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized matches any 401 response. The session has already been
	// cleared when it is returned.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNoSession is returned before a request is sent when no token is held.
	ErrNoSession = errors.New("not signed in")
)

// GenericMessage is shown when the backend gives no usable message.
const GenericMessage = "Something went wrong. Please try again."

// APIError is a non-2xx backend response.
type APIError struct {
	Status  int
	Message string
	Reason  string
	Path    string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Reason != "" {
		return fmt.Sprintf("%s: backend returned %d: %s (%s)", e.Path, e.Status, msg, e.Reason)
	}
	return fmt.Sprintf("%s: backend returned %d: %s", e.Path, e.Status, msg)
}

// Is lets errors.Is match status sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	}
	return false
}

// UserMessage returns the text to show a user for err: the backend's message
// when there is one, otherwise GenericMessage.
func UserMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return GenericMessage
}
