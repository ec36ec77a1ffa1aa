package model

import "time"

// Notification is one inbound event surfaced to the user (typically a
// processed email), grouping zero or more agent-proposed action items.
// Notifications are created server-side; this client only reads them,
// flips their read flag, and transitions their action items.
type Notification struct {
	// ID is the backend identifier, unique per tenant.
	ID string `json:"id"`

	// Title is the short display headline.
	Title string `json:"title"`

	// Message is the full notification text.
	Message string `json:"message"`

	// Timestamp is the server-side creation time. The feed is ordered
	// by it, newest first.
	Timestamp time.Time `json:"timestamp"`

	// IsRead reports whether the user has opened this notification.
	// It only ever moves false to true.
	IsRead bool `json:"isRead"`

	// ActionItems holds the proposed follow-ups in backend order. A
	// notification with no action items is valid and simply has
	// nothing to execute.
	ActionItems []ActionItem `json:"actionItems,omitempty"`
}

// PendingActionCount returns how many of the notification's action
// items are still actionable.
func (n Notification) PendingActionCount() int {
	count := 0
	for _, item := range n.ActionItems {
		if item.Actionable() {
			count++
		}
	}
	return count
}
