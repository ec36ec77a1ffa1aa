package feedlist

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sparkinventory/spark-notify/internal/model"
	"github.com/sparkinventory/spark-notify/internal/theme"
)

// NotificationItem wraps a model.Notification so it can be used in a
// bubbles/list.
type NotificationItem struct {
	Notification model.Notification
}

// FilterValue returns the string used for fuzzy filtering.
func (i NotificationItem) FilterValue() string { return i.Notification.Title }

// ItemDelegate implements list.ItemDelegate for rendering feed rows.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single feed row: unread marker, title, pending action
// badge, and relative age.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ni, ok := item.(NotificationItem)
	if !ok {
		return
	}

	n := ni.Notification
	isSelected := index == m.Index()

	marker := " "
	if !n.IsRead {
		marker = theme.UnreadDotStyle.Render("●")
	}

	badge := ""
	if pending := n.PendingActionCount(); pending > 0 {
		badge = theme.BadgeStyle.Render(fmt.Sprintf(" [%d actions]", pending))
	} else if len(n.ActionItems) > 0 {
		badge = theme.DimmedStyle.Render(" [done]")
	}

	timeStr := theme.DimmedStyle.Render("  " + relativeTime(n.Timestamp))

	line := fmt.Sprintf("%s %s%s%s", marker, n.Title, badge, timeStr)
	if n.IsRead {
		line = theme.DimmedStyle.Render(line)
	}

	if isSelected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		mins := int(d.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	case d < 24*time.Hour:
		hrs := int(d.Hours())
		if hrs == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hrs)
	case d < 7*24*time.Hour:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return fmt.Sprintf("%dd ago", days)
	default:
		weeks := int(d.Hours() / 24 / 7)
		if weeks == 1 {
			return "1w ago"
		}
		return fmt.Sprintf("%dw ago", weeks)
	}
}
