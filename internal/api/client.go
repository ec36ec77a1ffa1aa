package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sparkinventory/spark-notify/internal/auth"
)

// apiPrefix is prepended to every endpoint path.
const apiPrefix = "/api/v1"

// DefaultTimeout is the fixed client-side request timeout. Calls that
// exceed it abort and surface a *TimeoutError.
const DefaultTimeout = 30 * time.Second

// Client is a thin HTTP client for the Spark backend REST API. It
// handles Bearer token authentication, the tenant scope header, JSON
// marshaling, and the fixed request timeout.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new backend client. The baseURL should be the
// root URL of the backend (e.g., https://api.sparkinventory.com).
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Get performs an authenticated HTTP GET request and unmarshals the
// JSON response into result.
func (c *Client) Get(
	ctx context.Context,
	authCtx auth.Context,
	path string,
	result interface{},
) error {
	return c.do(ctx, authCtx, http.MethodGet, path, nil, result)
}

// Post performs an authenticated HTTP POST request with an optional
// JSON body and unmarshals the JSON response into result.
func (c *Client) Post(
	ctx context.Context,
	authCtx auth.Context,
	path string,
	body interface{},
	result interface{},
) error {
	return c.do(ctx, authCtx, http.MethodPost, path, body, result)
}

// PostPublic performs an unauthenticated POST request, used only for
// the login endpoint.
func (c *Client) PostPublic(
	ctx context.Context,
	path string,
	body interface{},
	result interface{},
) error {
	return c.exchange(ctx, http.MethodPost, path, nil, body, result)
}

// do dispatches an authenticated request. The auth context is checked
// locally before anything goes on the wire.
func (c *Client) do(
	ctx context.Context,
	authCtx auth.Context,
	method string,
	path string,
	body interface{},
	result interface{},
) error {
	if err := authCtx.Validate(); err != nil {
		return &AuthError{Message: err.Error()}
	}
	return c.exchange(ctx, method, path, &authCtx, body, result)
}

// exchange is the core HTTP method that builds the request, attaches
// headers, and handles JSON (de)serialization and error mapping.
func (c *Client) exchange(
	ctx context.Context,
	method string,
	path string,
	authCtx *auth.Context,
	body interface{},
	result interface{},
) error {
	url := c.baseURL + apiPrefix + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authCtx != nil {
		req.Header.Set("Authorization", "Bearer "+authCtx.Token)
		req.Header.Set("tenant-id", authCtx.TenantID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeoutErr(ctx, err) {
			return &TimeoutError{Method: method, Path: path}
		}
		return fmt.Errorf("executing request %s %s: %w", method, path, err)
	}

	respBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return fmt.Errorf("reading response body: %w", readErr)
	}

	if resp.StatusCode == http.StatusUnauthorized ||
		resp.StatusCode == http.StatusForbidden {
		return &AuthError{
			Message: fmt.Sprintf(
				"authentication failed (%d) on %s %s",
				resp.StatusCode, method, path,
			),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Message: fmt.Sprintf(
				"HTTP %d on %s %s", resp.StatusCode, method, path,
			),
		}

		var errBody errorBody
		if json.Unmarshal(respBody, &errBody) == nil && errBody.Message != "" {
			apiErr.Message = errBody.Message
			apiErr.Fields = errBody.Errors
		}

		return apiErr
	}

	// No content to parse (e.g. 204).
	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf(
			"unmarshaling response from %s %s: %w", method, path, err,
		)
	}

	return nil
}

// errorBody is the structured error payload the backend attaches to
// non-2xx responses.
type errorBody struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

// isTimeoutErr reports whether a transport error was caused by the
// client timeout or a context deadline.
func isTimeoutErr(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
