package notification

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/sparkinventory/spark-notify/internal/api"
	"github.com/sparkinventory/spark-notify/internal/auth"
	"github.com/sparkinventory/spark-notify/internal/model"
)

// markReadConcurrency bounds the fan-out of MarkAllRead.
const markReadConcurrency = 4

// replaceByID returns a copy of items with the single element whose id
// matches replaced by replacement, leaving every sibling's value and
// position untouched. An absent id is a no-op on the original slice,
// reported by the second return value.
func replaceByID[T any](items []T, idOf func(T) string, id string, replacement T) ([]T, bool) {
	for i := range items {
		if idOf(items[i]) != id {
			continue
		}
		out := make([]T, len(items))
		copy(out, items)
		out[i] = replacement
		return out, true
	}
	return items, false
}

// Session owns the in-memory notification list for one feed lifetime.
// The list is the only shared mutable state in the system; it is
// mutated exclusively through the replace-by-id operations below, so
// concurrent read-state and execution updates targeting disjoint ids
// stay commutative. The list is discarded and refetched on every
// refresh; the authoritative state is always the next fetch.
type Session struct {
	client *api.Client

	mu            sync.Mutex
	notifications []model.Notification
}

// NewSession creates an empty feed session over the backend client.
func NewSession(client *api.Client) *Session {
	return &Session{client: client}
}

// SetNotifications replaces the session's list wholesale, as happens
// after every feed fetch.
func (s *Session) SetNotifications(notifications []model.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = notifications
}

// Notifications returns a copy of the current list.
func (s *Session) Notifications() []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

// Get returns the notification with the given id, if present.
func (s *Session) Get(id string) (model.Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notifications {
		if n.ID == id {
			return n, true
		}
	}
	return model.Notification{}, false
}

// UnreadCount returns how many notifications are still unread.
func (s *Session) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, n := range s.notifications {
		if !n.IsRead {
			count++
		}
	}
	return count
}

// ApplyItem replaces the matching action item (by id) inside whichever
// notification owns it, leaving all sibling items and every
// notification-level field untouched. This is the local fast path after
// an execute cycle; the next fetch remains authoritative.
func (s *Session) ApplyItem(item model.ActionItem) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	itemID := func(it model.ActionItem) string { return it.ID }

	for i, n := range s.notifications {
		items, ok := replaceByID(n.ActionItems, itemID, item.ID, item)
		if !ok {
			continue
		}
		n.ActionItems = items
		notifID := func(x model.Notification) string { return x.ID }
		s.notifications, _ = replaceByID(s.notifications, notifID, s.notifications[i].ID, n)
		return true
	}
	return false
}

// markReadLocal flips the notification's read flag in place. Read state
// is monotonic: an already-read notification is left as is, and the
// flag never reverts.
func (s *Session) markReadLocal(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	notifID := func(n model.Notification) string { return n.ID }
	for _, n := range s.notifications {
		if n.ID != id {
			continue
		}
		if n.IsRead {
			return true
		}
		n.IsRead = true
		s.notifications, _ = replaceByID(s.notifications, notifID, id, n)
		return true
	}
	return false
}

// MarkRead marks one notification read on the backend and, on success,
// in the local list. It is best-effort: a failure leaves local state
// unchanged and is returned for logging, but callers must not block the
// user on it. Calling it for an already-read notification is a local
// no-op and skips the network entirely.
func (s *Session) MarkRead(ctx context.Context, authCtx auth.Context, id string) error {
	if n, ok := s.Get(id); ok && n.IsRead {
		return nil
	}

	err := s.client.Post(ctx, authCtx, "/users/me/notifications/"+id, nil, nil)
	if err != nil {
		return fmt.Errorf("marking notification %s read: %w", id, err)
	}

	s.markReadLocal(id)
	return nil
}

// MarkAllRead marks every unread notification read, fanning the
// best-effort calls out with a bounded group. Individual failures do
// not stop the rest; the first one is returned for logging.
func (s *Session) MarkAllRead(ctx context.Context, authCtx auth.Context) error {
	var unread []string
	for _, n := range s.Notifications() {
		if !n.IsRead {
			unread = append(unread, n.ID)
		}
	}
	if len(unread) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(markReadConcurrency)

	var once sync.Once
	var firstErr error
	for _, id := range unread {
		g.Go(func() error {
			if err := s.MarkRead(gctx, authCtx, id); err != nil {
				once.Do(func() { firstErr = err })
			}
			// Best-effort: never cancel the siblings.
			return nil
		})
	}

	_ = g.Wait()
	return firstErr
}
