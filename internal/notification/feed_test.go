package notification

import (
	"context"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/sparkinventory/spark-notify/internal/api"
	"github.com/sparkinventory/spark-notify/internal/model"
	"github.com/sparkinventory/spark-notify/tests/testutil"
)

func newTestSession(t *testing.T) (*Session, *testutil.Backend) {
	t.Helper()
	backend := testutil.NewBackend()
	t.Cleanup(backend.Close)
	client := api.NewClient(backend.URL(), 5*time.Second)
	return NewSession(client), backend
}

func sampleNotifications() []model.Notification {
	return []model.Notification{
		{
			ID:    "n-1",
			Title: "New order request",
			ActionItems: []model.ActionItem{
				{ID: "item-1", Kind: model.KindCreateSalesOrder, Status: model.StatusPending},
				{ID: "item-2", Kind: model.KindNotActionable, Status: model.StatusPending},
			},
		},
		{
			ID:     "n-2",
			Title:  "Order change request",
			IsRead: true,
			ActionItems: []model.ActionItem{
				{ID: "item-3", Kind: model.KindUpdateSalesOrder, Status: model.StatusPending},
			},
		},
		{ID: "n-3", Title: "FYI"},
	}
}

// TestReplaceByID_OnlyTargetChanges verifies that replacing one element
// never disturbs the value or position of any sibling, and that the
// input slice itself is left untouched.
func TestReplaceByID_OnlyTargetChanges(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		type record struct {
			ID    string
			Value int
		}

		n := rapid.IntRange(1, 30).Draw(rt, "len")
		items := make([]record, n)
		for i := range items {
			items[i] = record{ID: "id-" + string(rune('a'+i%26)) + string(rune('0'+i/26)), Value: i}
		}

		before := make([]record, n)
		copy(before, items)

		target := rapid.IntRange(0, n-1).Draw(rt, "target")
		replacement := record{ID: items[target].ID, Value: -1}

		out, ok := replaceByID(items, func(r record) string { return r.ID }, items[target].ID, replacement)
		if !ok {
			rt.Fatal("replaceByID missed a present id")
		}
		if len(out) != n {
			rt.Fatalf("result length = %d, want %d", len(out), n)
		}
		for i := range out {
			if i == target {
				if out[i] != replacement {
					rt.Fatalf("target not replaced: %+v", out[i])
				}
				continue
			}
			if out[i] != before[i] {
				rt.Fatalf("sibling [%d] changed: %+v, want %+v", i, out[i], before[i])
			}
		}
		for i := range items {
			if items[i] != before[i] {
				rt.Fatalf("input slice mutated at [%d]", i)
			}
		}
	})
}

func TestReplaceByID_AbsentIDIsNoOp(t *testing.T) {
	type record struct{ ID string }
	items := []record{{"a"}, {"b"}}

	out, ok := replaceByID(items, func(r record) string { return r.ID }, "missing", record{"z"})
	if ok {
		t.Fatal("replaceByID reported a match for an absent id")
	}
	if len(out) != 2 || out[0].ID != "a" || out[1].ID != "b" {
		t.Fatalf("result = %+v, want original contents", out)
	}
}

func TestSession_ApplyItem(t *testing.T) {
	session, _ := newTestSession(t)
	session.SetNotifications(sampleNotifications())

	now := time.Now()
	updated := model.ActionItem{
		ID:          "item-1",
		Kind:        model.KindCreateSalesOrder,
		Status:      model.StatusCompleted,
		CompletedAt: &now,
	}
	if !session.ApplyItem(updated) {
		t.Fatal("ApplyItem missed a present item id")
	}

	n, ok := session.Get("n-1")
	if !ok {
		t.Fatal("notification n-1 missing")
	}
	if n.ActionItems[0].Status != model.StatusCompleted {
		t.Errorf("item-1 status = %q, want completed", n.ActionItems[0].Status)
	}
	if n.ActionItems[1].Status != model.StatusPending {
		t.Errorf("sibling item-2 status = %q, want pending", n.ActionItems[1].Status)
	}

	// Other notifications are untouched.
	n2, _ := session.Get("n-2")
	if n2.ActionItems[0].Status != model.StatusPending {
		t.Errorf("item-3 status = %q, want pending", n2.ActionItems[0].Status)
	}

	if session.ApplyItem(model.ActionItem{ID: "ghost"}) {
		t.Error("ApplyItem matched an absent item id")
	}
}

func TestSession_MarkRead(t *testing.T) {
	session, backend := newTestSession(t)
	session.SetNotifications(sampleNotifications())

	if got := session.UnreadCount(); got != 2 {
		t.Fatalf("UnreadCount = %d, want 2", got)
	}

	if err := session.MarkRead(context.Background(), testutil.AuthContext(), "n-1"); err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}

	n, _ := session.Get("n-1")
	if !n.IsRead {
		t.Error("n-1 still unread after MarkRead")
	}
	if got := session.UnreadCount(); got != 1 {
		t.Errorf("UnreadCount = %d, want 1", got)
	}
	if got := backend.MarkReadCalls(); len(got) != 1 || got[0] != "n-1" {
		t.Errorf("backend mark-read calls = %v, want [n-1]", got)
	}
}

func TestSession_MarkReadAlreadyReadSkipsNetwork(t *testing.T) {
	session, backend := newTestSession(t)
	session.SetNotifications(sampleNotifications())

	if err := session.MarkRead(context.Background(), testutil.AuthContext(), "n-2"); err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	if got := backend.MarkReadCalls(); len(got) != 0 {
		t.Errorf("backend saw %v for an already-read notification, want none", got)
	}
}

func TestSession_MarkReadFailureLeavesStateUnchanged(t *testing.T) {
	backend := testutil.NewBackend()
	backend.Close() // every call now fails at the transport

	client := api.NewClient(backend.URL(), 500*time.Millisecond)
	session := NewSession(client)
	session.SetNotifications(sampleNotifications())

	if err := session.MarkRead(context.Background(), testutil.AuthContext(), "n-1"); err == nil {
		t.Fatal("MarkRead succeeded against a dead backend")
	}

	n, _ := session.Get("n-1")
	if n.IsRead {
		t.Error("read flag flipped despite the backend failure")
	}
}

// TestSession_ReadStateMonotonic verifies that no interleaving of
// mark-read operations ever flips a notification back to unread.
func TestSession_ReadStateMonotonic(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		session, _ := newTestSession(t)
		session.SetNotifications(sampleNotifications())

		read := map[string]bool{}
		ids := []string{"n-1", "n-2", "n-3", "ghost"}

		steps := rapid.IntRange(1, 20).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			id := rapid.SampledFrom(ids).Draw(rt, "id")
			session.markReadLocal(id)
			read[id] = true

			for _, n := range session.Notifications() {
				if read[n.ID] && !n.IsRead {
					rt.Fatalf("notification %s reverted to unread", n.ID)
				}
			}
		}
	})
}

func TestSession_MarkAllRead(t *testing.T) {
	session, backend := newTestSession(t)
	session.SetNotifications(sampleNotifications())

	if err := session.MarkAllRead(context.Background(), testutil.AuthContext()); err != nil {
		t.Fatalf("MarkAllRead failed: %v", err)
	}

	if got := session.UnreadCount(); got != 0 {
		t.Errorf("UnreadCount = %d after MarkAllRead, want 0", got)
	}

	// Only the two unread notifications go over the wire.
	calls := backend.MarkReadCalls()
	if len(calls) != 2 {
		t.Fatalf("backend saw %d mark-read calls, want 2: %v", len(calls), calls)
	}
	seen := map[string]bool{}
	for _, id := range calls {
		seen[id] = true
	}
	if !seen["n-1"] || !seen["n-3"] {
		t.Errorf("mark-read calls = %v, want n-1 and n-3", calls)
	}
}

func TestSession_MarkAllReadEmpty(t *testing.T) {
	session, backend := newTestSession(t)
	session.SetNotifications([]model.Notification{{ID: "n-1", IsRead: true}})

	if err := session.MarkAllRead(context.Background(), testutil.AuthContext()); err != nil {
		t.Fatalf("MarkAllRead failed: %v", err)
	}
	if got := backend.MarkReadCalls(); len(got) != 0 {
		t.Errorf("backend saw %v with nothing unread, want none", got)
	}
}

func TestSession_NotificationsReturnsCopy(t *testing.T) {
	session, _ := newTestSession(t)
	session.SetNotifications(sampleNotifications())

	list := session.Notifications()
	list[0].Title = "mutated"

	n, _ := session.Get("n-1")
	if n.Title == "mutated" {
		t.Error("mutating the returned slice leaked into the session")
	}
}
