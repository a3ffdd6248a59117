package gateway

import (
	"errors"
	"fmt"
)

// ErrNoAPIKey is returned before any network call when no API key is
// configured.
var ErrNoAPIKey = errors.New("no API key configured (set ARCANA_API_KEY or run `arcana config set api_key <key>`)")

// NetworkError wraps a transport failure: the backend never produced a
// response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("backend unreachable during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// RemoteError carries an error payload the backend returned.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend error (%d)", e.StatusCode)
}

// RequestSetupError marks a request the client could not even construct.
type RequestSetupError struct {
	Err error
}

func (e *RequestSetupError) Error() string {
	return fmt.Sprintf("build request: %v", e.Err)
}

func (e *RequestSetupError) Unwrap() error { return e.Err }
