package api

import (
	"errors"
	"fmt"
)

// AuthError indicates a missing, invalid, or expired credential or
// tenant scope. Raised locally before dispatch when detectable,
// otherwise from a 401/403 response.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error: %s", e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// TimeoutError indicates the request exceeded the fixed client timeout.
type TimeoutError struct {
	Method string
	Path   string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request timeout on %s %s", e.Method, e.Path)
}

// IsTimeout reports whether err (or any error in its chain) is a TimeoutError.
func IsTimeout(err error) bool {
	var timeoutErr *TimeoutError
	return errors.As(err, &timeoutErr)
}

// APIError is a non-2xx backend response carrying the machine-readable
// status code and the structured error body when one was present.
type APIError struct {
	StatusCode int
	Message    string
	Fields     map[string][]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}
