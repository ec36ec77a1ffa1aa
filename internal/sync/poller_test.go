package sync

import (
	"net/http"
	"testing"
	"time"

	"github.com/sparkinventory/spark-notify/internal/api"
	"github.com/sparkinventory/spark-notify/internal/auth"
	"github.com/sparkinventory/spark-notify/internal/notification"
	"github.com/sparkinventory/spark-notify/tests/testutil"
)

func newTestPoller(t *testing.T) (*Poller, *testutil.Backend) {
	t.Helper()
	backend := testutil.NewBackend()
	t.Cleanup(backend.Close)

	client := api.NewClient(backend.URL(), 5*time.Second)
	fetcher := notification.NewFetcher(client)
	poller := New(fetcher, testutil.AuthContext(), 20)
	t.Cleanup(poller.Stop)
	return poller, backend
}

func awaitResult(t *testing.T, p *Poller) FeedResultMsg {
	t.Helper()
	done := make(chan FeedResultMsg, 1)
	go func() {
		msg := p.WaitForNextResult()()
		result, ok := msg.(FeedResultMsg)
		if !ok {
			return
		}
		done <- result
	}()

	select {
	case result := <-done:
		return result
	case <-time.After(3 * time.Second):
		t.Fatal("no feed result arrived")
		return FeedResultMsg{}
	}
}

func TestPoller_InitialFetch(t *testing.T) {
	poller, backend := newTestPoller(t)
	backend.SetFeed(testutil.FeedBody(
		testutil.WireNotification("n-1", "Hello", time.Now().UTC(), ""),
	))

	cmd := poller.Start()
	msg, ok := cmd().(FeedResultMsg)
	if !ok {
		t.Fatal("Start's command did not yield a FeedResultMsg")
	}
	if msg.Err != nil {
		t.Fatalf("initial fetch failed: %v", msg.Err)
	}
	if len(msg.Notifications) != 1 || msg.Notifications[0].ID != "n-1" {
		t.Fatalf("notifications = %+v, want [n-1]", msg.Notifications)
	}

	state, lastSync := poller.Status()
	if state != Idle {
		t.Errorf("state = %v after a clean fetch, want Idle", state)
	}
	if lastSync.IsZero() {
		t.Error("lastSync not stamped after a clean fetch")
	}
}

func TestPoller_RefreshTriggersFetch(t *testing.T) {
	poller, backend := newTestPoller(t)

	cmd := poller.Start()
	if msg, ok := cmd().(FeedResultMsg); !ok || msg.Err != nil {
		t.Fatalf("initial fetch failed: %+v", msg)
	}
	before := backend.FeedRequests()

	poller.Refresh()
	result := awaitResult(t, poller)
	if result.Err != nil {
		t.Fatalf("refresh fetch failed: %v", result.Err)
	}
	if got := backend.FeedRequests(); got != before+1 {
		t.Errorf("feed requests = %d, want %d", got, before+1)
	}
}

func TestPoller_AuthFailureFlagged(t *testing.T) {
	poller, backend := newTestPoller(t)
	backend.SetFeedStatus(http.StatusUnauthorized)

	cmd := poller.Start()
	msg, ok := cmd().(FeedResultMsg)
	if !ok {
		t.Fatal("Start's command did not yield a FeedResultMsg")
	}
	if msg.Err == nil {
		t.Fatal("fetch succeeded against a 401 backend")
	}
	if !msg.AuthExpired {
		t.Error("401 not flagged as an auth failure")
	}

	state, _ := poller.Status()
	if state != Errored {
		t.Errorf("state = %v after a failed fetch, want Errored", state)
	}
}

func TestPoller_ExpiredTokenFlagged(t *testing.T) {
	backend := testutil.NewBackend()
	t.Cleanup(backend.Close)

	client := api.NewClient(backend.URL(), 5*time.Second)
	fetcher := notification.NewFetcher(client)
	poller := New(fetcher, auth.Context{TenantID: "tenant-1"}, 20)
	t.Cleanup(poller.Stop)

	cmd := poller.Start()
	msg, ok := cmd().(FeedResultMsg)
	if !ok {
		t.Fatal("Start's command did not yield a FeedResultMsg")
	}
	if !msg.AuthExpired {
		t.Error("missing credential not flagged as an auth failure")
	}
	if got := backend.FeedRequests(); got != 0 {
		t.Errorf("backend saw %d requests without a credential, want 0", got)
	}
}

func TestPoller_StopIsIdempotent(t *testing.T) {
	poller, _ := newTestPoller(t)
	cmd := poller.Start()
	_ = cmd()

	poller.Stop()
	poller.Stop()
}

func TestPoller_StartTwiceReturnsNil(t *testing.T) {
	poller, _ := newTestPoller(t)
	cmd := poller.Start()
	_ = cmd()

	if again := poller.Start(); again != nil {
		t.Error("second Start returned a command; the loop must not double-run")
	}
}
