package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Validation failures detected locally, before any request is dispatched.
var (
	ErrMissingCredential = errors.New("no API token present; log in again")
	ErrMissingTenant     = errors.New("no tenant scope present; log in again")
	ErrTokenExpired      = errors.New("API token has expired; log in again")
)

// Context carries the credential and tenant scope for one backend call.
// It is passed explicitly to every operation rather than held in any
// ambient global, so each call site states whose authority it acts under.
type Context struct {
	// Token is the bearer credential issued at login.
	Token string

	// TenantID scopes every request to one tenant.
	TenantID string
}

// Validate checks that the context can authenticate a request without
// going to the network. It requires both a token and a tenant scope,
// and rejects tokens whose exp claim has already passed. The token
// signature is not checked here; only the backend can do that.
func (c Context) Validate() error {
	if c.Token == "" {
		return ErrMissingCredential
	}
	if c.TenantID == "" {
		return ErrMissingTenant
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(c.Token, claims); err != nil {
		// Opaque (non-JWT) tokens are allowed; let the backend decide.
		return nil
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	if exp.Before(time.Now()) {
		return fmt.Errorf("%w (expired %s)", ErrTokenExpired,
			exp.Format(time.RFC3339))
	}

	return nil
}
