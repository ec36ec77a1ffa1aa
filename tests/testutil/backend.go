package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sparkinventory/spark-notify/internal/auth"
)

// Backend is an in-memory stand-in for the Spark REST API, covering the
// endpoints the client talks to: the notification feed, mark-read, and
// action item execution. Every request is recorded so tests can assert
// on what did (or did not) go over the wire.
type Backend struct {
	Server *httptest.Server

	mu            sync.Mutex
	feedBody      []byte
	feedStatus    int
	executeFunc   func(itemID string) (int, string)
	feedRequests  int
	executeCalls  map[string]int
	markReadCalls []string
}

// NewBackend starts a fake backend serving an empty feed. Close it with
// Close when the test ends.
func NewBackend() *Backend {
	b := &Backend{
		feedBody:     FeedBody(),
		feedStatus:   http.StatusOK,
		executeCalls: make(map[string]int),
	}
	b.Server = httptest.NewServer(http.HandlerFunc(b.handle))
	return b
}

// Close shuts the fake backend down.
func (b *Backend) Close() {
	b.Server.Close()
}

// URL returns the backend's base URL.
func (b *Backend) URL() string {
	return b.Server.URL
}

// SetFeed sets the body returned by the feed endpoint.
func (b *Backend) SetFeed(body []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.feedBody = body
	b.feedStatus = http.StatusOK
}

// SetFeedStatus makes the feed endpoint fail with the given status.
func (b *Backend) SetFeedStatus(status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.feedStatus = status
}

// OnExecute installs the handler for execute calls. It receives the
// item id and returns the response status and body.
func (b *Backend) OnExecute(fn func(itemID string) (int, string)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.executeFunc = fn
}

// FeedRequests returns how many times the feed endpoint was hit.
func (b *Backend) FeedRequests() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.feedRequests
}

// ExecuteCalls returns how many execute calls the backend saw for the
// given item id.
func (b *Backend) ExecuteCalls(itemID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.executeCalls[itemID]
}

// MarkReadCalls returns the notification ids that were marked read, in
// arrival order.
func (b *Backend) MarkReadCalls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.markReadCalls))
	copy(out, b.markReadCalls)
	return out
}

func (b *Backend) handle(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1")

	switch {
	case r.Method == http.MethodGet && path == "/users/me/notifications":
		b.mu.Lock()
		b.feedRequests++
		status := b.feedStatus
		body := b.feedBody
		b.mu.Unlock()

		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)

	case r.Method == http.MethodPost && strings.HasPrefix(path, "/users/me/notifications/"):
		id := strings.TrimPrefix(path, "/users/me/notifications/")
		b.mu.Lock()
		b.markReadCalls = append(b.markReadCalls, id)
		b.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)

	case r.Method == http.MethodPost && strings.HasPrefix(path, "/action-items/"):
		id := strings.TrimSuffix(strings.TrimPrefix(path, "/action-items/"), "/execute")
		b.mu.Lock()
		b.executeCalls[id]++
		fn := b.executeFunc
		b.mu.Unlock()

		status, body := http.StatusOK, ExecuteSuccessBody("Done.")
		if fn != nil {
			status, body = fn(id)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))

	default:
		http.NotFound(w, r)
	}
}

// AuthContext returns a valid opaque-token auth context for tests.
func AuthContext() auth.Context {
	return auth.Context{Token: "test-token", TenantID: "tenant-1"}
}

// WireActionItem builds the wire shape of one action item.
func WireActionItem(id, actionType string, completed bool, data map[string]any) map[string]any {
	item := map[string]any{
		"id":          id,
		"actionType":  actionType,
		"description": "Test action " + id,
		"isCompleted": completed,
		"data":        data,
		"createdAt":   time.Now().UTC().Format(time.RFC3339Nano),
	}
	if completed {
		item["completedAt"] = time.Now().UTC().Format(time.RFC3339Nano)
	}
	return item
}

// WireNotification builds the wire shape of one notification. readAt
// empty means unread.
func WireNotification(id, title string, createdAt time.Time, readAt string, items ...map[string]any) map[string]any {
	n := map[string]any{
		"id":        id,
		"title":     title,
		"text":      "Body of " + title,
		"createdAt": createdAt.UTC().Format(time.RFC3339Nano),
		"readAt":    nil,
	}
	if readAt != "" {
		n["readAt"] = readAt
	}
	if len(items) > 0 {
		n["actionItems"] = items
	}
	return n
}

// FeedBody marshals notifications into the feed page envelope.
func FeedBody(notifications ...map[string]any) []byte {
	if notifications == nil {
		notifications = []map[string]any{}
	}
	body, err := json.Marshal(map[string]any{
		"data":       notifications,
		"page":       1,
		"pageSize":   20,
		"totalCount": len(notifications),
		"totalPages": 1,
	})
	if err != nil {
		panic(err)
	}
	return body
}

// ExecuteSuccessBody builds a successful execution result body.
func ExecuteSuccessBody(message string) string {
	return `{"success":true,"message":` + mustJSON(message) + `}`
}

// ExecuteRejectionBody builds a business-rejection execution result body.
func ExecuteRejectionBody(message string) string {
	return `{"success":false,"message":` + mustJSON(message) + `}`
}

// NewID returns a fresh uuid for fixture ids.
func NewID() string {
	return uuid.NewString()
}

func mustJSON(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		panic(err)
	}
	return string(b)
}
