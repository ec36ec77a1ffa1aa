package notification

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/sparkinventory/spark-notify/internal/api"
	"github.com/sparkinventory/spark-notify/internal/auth"
	"github.com/sparkinventory/spark-notify/internal/model"
)

// feedPath is the paginated notifications endpoint for the current user.
const feedPath = "/users/me/notifications"

// ErrBadPage is returned when pagination arguments are out of range.
var ErrBadPage = errors.New("page must be >= 1 and pageSize > 0")

// FetchError wraps any transport or mapping failure from the feed
// endpoint. Either the full page maps cleanly or the fetch fails as a
// whole; partially-mapped pages are never returned.
type FetchError struct {
	Page int
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching notifications page %d: %v", e.Page, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher retrieves the notification feed and maps the backend's wire
// shapes into domain notifications. It is a pure read; nothing on the
// server changes because of a fetch.
type Fetcher struct {
	client *api.Client
}

// NewFetcher creates a feed fetcher over the given backend client.
func NewFetcher(client *api.Client) *Fetcher {
	return &Fetcher{client: client}
}

// Fetch retrieves one page of the current user's notifications, newest
// first. The auth context is validated locally before any request is
// attempted.
func (f *Fetcher) Fetch(
	ctx context.Context,
	authCtx auth.Context,
	page int,
	pageSize int,
) ([]model.Notification, error) {
	if page < 1 || pageSize < 1 {
		return nil, ErrBadPage
	}
	if err := authCtx.Validate(); err != nil {
		return nil, &api.AuthError{Message: err.Error()}
	}

	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("pageSize", strconv.Itoa(pageSize))
	params.Set("sortBy", "createdAt")
	params.Set("sortDirection", "desc")

	var resp feedPage
	err := f.client.Get(ctx, authCtx, feedPath+"?"+params.Encode(), &resp)
	if err != nil {
		return nil, &FetchError{Page: page, Err: err}
	}

	records := resp.records()
	notifications := make([]model.Notification, 0, len(records))
	for _, rec := range records {
		n, err := mapNotification(rec)
		if err != nil {
			return nil, &FetchError{Page: page, Err: err}
		}
		notifications = append(notifications, n)
	}

	// The backend is asked to sort, but the contract here is newest
	// first regardless of what it returns.
	sort.SliceStable(notifications, func(i, j int) bool {
		return notifications[i].Timestamp.After(notifications[j].Timestamp)
	})

	return notifications, nil
}

// mapNotification converts one wire record into a domain notification,
// decoding each nested action item according to its declared kind.
func mapNotification(rec notificationWire) (model.Notification, error) {
	ts, err := parseWireTime(rec.CreatedAt)
	if err != nil {
		return model.Notification{}, fmt.Errorf(
			"notification %s: %w", rec.ID, err,
		)
	}

	items := make([]model.ActionItem, 0, len(rec.ActionItems))
	for _, wi := range rec.ActionItems {
		item, err := mapActionItem(wi, rec.Text)
		if err != nil {
			return model.Notification{}, fmt.Errorf(
				"notification %s: %w", rec.ID, err,
			)
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		items = nil
	}

	return model.Notification{
		ID:          rec.ID,
		Title:       rec.Title,
		Message:     rec.Text,
		Timestamp:   ts,
		IsRead:      rec.ReadAt != nil,
		ActionItems: items,
	}, nil
}

// mapActionItem converts one wire action item. The fallback description
// is the enclosing notification's text, used when the payload carries
// no summary.
func mapActionItem(wi actionItemWire, fallback string) (model.ActionItem, error) {
	kind := model.ActionKind(wi.ActionType)

	payload, err := decodePayload(kind, wi.Data)
	if err != nil {
		return model.ActionItem{}, fmt.Errorf("action item %s: %w", wi.ID, err)
	}

	createdAt, err := parseWireTime(wi.CreatedAt)
	if err != nil {
		return model.ActionItem{}, fmt.Errorf("action item %s: %w", wi.ID, err)
	}

	status := model.StatusPending
	var completedAt *time.Time
	if wi.IsCompleted {
		status = model.StatusCompleted
		at := createdAt
		if wi.CompletedAt != "" {
			at, err = parseWireTime(wi.CompletedAt)
			if err != nil {
				return model.ActionItem{}, fmt.Errorf(
					"action item %s: %w", wi.ID, err,
				)
			}
		}
		completedAt = &at
	}

	description := payload.Common().Summary
	if description == "" {
		description = wi.Description
	}
	if description == "" {
		description = fallback
	}

	return model.ActionItem{
		ID:          wi.ID,
		Kind:        kind,
		Description: description,
		Status:      status,
		Payload:     payload,
		CreatedAt:   createdAt,
		CompletedAt: completedAt,
	}, nil
}

// parseWireTime parses an ISO-8601 timestamp from the backend. An empty
// string maps to the zero time.
func parseWireTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}

	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.000-0700",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}
