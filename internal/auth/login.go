package auth

import (
	"context"
	"fmt"
	"strings"
)

// Poster posts an unauthenticated JSON request, as the login endpoint
// is the one call made before a credential exists.
type Poster interface {
	PostPublic(ctx context.Context, path string, body, result interface{}) error
}

// Tenant is one tenant the signed-in user belongs to.
type Tenant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// Session is the result of a successful login.
type Session struct {
	UserID  string
	Email   string
	Name    string
	Token   string
	Tenants []Tenant
}

// Context returns an auth context scoped to the session's first tenant,
// which is how the backend expects single-tenant users to operate.
func (s *Session) Context() Context {
	tenantID := ""
	if len(s.Tenants) > 0 {
		tenantID = s.Tenants[0].ID
	}
	return Context{Token: s.Token, TenantID: tenantID}
}

// loginRequest is the wire shape of the login call.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse is the wire shape of a successful login.
type loginResponse struct {
	Token string `json:"token"`
	User  struct {
		ID        string `json:"id"`
		Email     string `json:"email"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	} `json:"user"`
	Tenants []Tenant `json:"tenants"`
}

// Login exchanges an email and password for a session.
func Login(ctx context.Context, client Poster, email, password string) (*Session, error) {
	body := loginRequest{Username: email, Password: password}

	var resp loginResponse
	err := client.PostPublic(ctx, "/authentication/login", body, &resp)
	if err != nil {
		return nil, fmt.Errorf("logging in: %w", err)
	}

	name := strings.TrimSpace(resp.User.FirstName + " " + resp.User.LastName)
	if name == "" {
		if at := strings.Index(resp.User.Email, "@"); at > 0 {
			name = resp.User.Email[:at]
		}
	}

	return &Session{
		UserID:  resp.User.ID,
		Email:   resp.User.Email,
		Name:    name,
		Token:   resp.Token,
		Tenants: resp.Tenants,
	}, nil
}
