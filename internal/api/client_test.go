package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sparkinventory/spark-notify/internal/auth"
)

func testAuthContext() auth.Context {
	return auth.Context{Token: "test-token", TenantID: "tenant-1"}
}

func TestClient_RequestHeaders(t *testing.T) {
	var got http.Header
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	var result map[string]any
	if err := client.Get(context.Background(), testAuthContext(), "/users/me/notifications", &result); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if gotPath != "/api/v1/users/me/notifications" {
		t.Errorf("path = %q, want the /api/v1 prefix", gotPath)
	}
	if header := got.Get("Authorization"); header != "Bearer test-token" {
		t.Errorf("Authorization = %q, want Bearer test-token", header)
	}
	if tenant := got.Get("tenant-id"); tenant != "tenant-1" {
		t.Errorf("tenant-id = %q, want tenant-1", tenant)
	}
	if accept := got.Get("Accept"); accept != "application/json" {
		t.Errorf("Accept = %q, want application/json", accept)
	}
	if got.Get("X-Request-Id") == "" {
		t.Error("X-Request-Id header missing")
	}
}

func TestClient_PostSendsJSONBody(t *testing.T) {
	var contentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	body := map[string]string{"hello": "world"}
	if err := client.Post(context.Background(), testAuthContext(), "/x", body, nil); err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	if contentType != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", contentType)
	}
}

func TestClient_NoContentResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	var result map[string]any
	if err := client.Post(context.Background(), testAuthContext(), "/x", nil, &result); err != nil {
		t.Fatalf("Post failed on 204: %v", err)
	}
	if result != nil {
		t.Errorf("result = %v after 204, want untouched nil map", result)
	}
}

func TestClient_ErrorBodyDecoded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"Validation failed","errors":{"customerName":["is required"]}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	err := client.Post(context.Background(), testAuthContext(), "/x", nil, nil)

	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("error type = %T, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("StatusCode = %d, want 422", apiErr.StatusCode)
	}
	if apiErr.Message != "Validation failed" {
		t.Errorf("Message = %q, want the backend's message", apiErr.Message)
	}
	if got := apiErr.Fields["customerName"]; len(got) != 1 || got[0] != "is required" {
		t.Errorf("Fields = %v, want the field errors", apiErr.Fields)
	}
}

func TestClient_UnauthorizedMapsToAuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	err := client.Get(context.Background(), testAuthContext(), "/x", nil)
	if !IsAuthError(err) {
		t.Fatalf("error = %v, want auth error", err)
	}
}

func TestClient_InvalidContextNoRequest(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	err := client.Get(context.Background(), auth.Context{}, "/x", nil)
	if !IsAuthError(err) {
		t.Fatalf("error = %v, want auth error", err)
	}
	if requests != 0 {
		t.Errorf("server saw %d requests with an empty auth context, want 0", requests)
	}
}

func TestClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient(server.URL, 50*time.Millisecond)
	err := client.Get(context.Background(), testAuthContext(), "/slow", nil)
	if !IsTimeout(err) {
		t.Fatalf("error = %v, want timeout", err)
	}

	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatal("timeout error not a *TimeoutError")
	}
	if timeoutErr.Path != "/slow" {
		t.Errorf("TimeoutError.Path = %q, want /slow", timeoutErr.Path)
	}
}

func TestClient_PostPublicSkipsAuthHeaders(t *testing.T) {
	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	var result map[string]any
	body := map[string]string{"username": "u", "password": "p"}
	if err := client.PostPublic(context.Background(), "/authentication/login", body, &result); err != nil {
		t.Fatalf("PostPublic failed: %v", err)
	}

	if got.Get("Authorization") != "" {
		t.Error("Authorization header sent on a public call")
	}
	if got.Get("tenant-id") != "" {
		t.Error("tenant-id header sent on a public call")
	}
}

func TestClient_TrailingSlashNormalized(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", 5*time.Second)
	if err := client.Get(context.Background(), testAuthContext(), "/x", nil); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if gotPath != "/api/v1/x" {
		t.Errorf("path = %q, want /api/v1/x", gotPath)
	}
}
