package backend

import (
	"fmt"
	"net/http"
)

// NetworkError wraps a transport-level failure. The backend client never
// retries; the error surfaces to the caller as-is.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("Could not reach the server: %v.", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// AuthError reports a credential the server rejected.
type AuthError struct {
	URL        string
	StatusCode int
}

func (e *AuthError) Error() string {
	return "Your session is no longer valid. Please sign in again."
}

// RequestError reports any other non-2xx response.
type RequestError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("The server rejected the request (status %d).", e.StatusCode)
}

func statusError(u string, status int, body []byte) error {
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return &AuthError{URL: u, StatusCode: status}
	}
	return &RequestError{URL: u, StatusCode: status, Body: string(body)}
}
