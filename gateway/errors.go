package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Failures that block a verb before any network call is issued.
var (
	// ErrConfigurationMissing means the API key or spreadsheet ID is
	// absent; the user should be routed to configuration.
	ErrConfigurationMissing = errors.New("configuration missing: api key and spreadsheet id are required")
	// ErrNotAuthenticated means no live credential is cached; the user
	// should be routed to authorization.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// RemoteError carries a server-reported error payload. The message is
// surfaced to the user verbatim.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote service rejected the request: %s", e.Message)
}

// remoteErrorFrom extracts a RemoteError from a response body shaped
// {"error": "..."}. Returns nil when the body carries no such payload.
func remoteErrorFrom(body []byte) *RemoteError {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Error == "" {
		return nil
	}
	return &RemoteError{Message: payload.Error}
}
