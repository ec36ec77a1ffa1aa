package feedlist

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sparkinventory/spark-notify/internal/keys"
	"github.com/sparkinventory/spark-notify/internal/model"
	"github.com/sparkinventory/spark-notify/internal/theme"
)

// SelectedMsg is sent when the user opens a notification.
type SelectedMsg struct {
	NotificationID string
}

// RefreshMsg asks the parent to refetch the feed.
type RefreshMsg struct{}

// MarkAllReadMsg asks the parent to mark every notification read.
type MarkAllReadMsg struct{}

// Model is the notification feed list view.
type Model struct {
	list          list.Model
	keys          *keys.KeyMap
	notifications []model.Notification
	unreadOnly    bool
	width         int
	height        int
}

// New creates a new feed list model.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.Title = "Notifications"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:   l,
		keys:   k,
		width:  width,
		height: height,
	}
}

// Init returns the initial command for the feed list.
func (m Model) Init() tea.Cmd {
	return nil
}

// SetNotifications replaces the displayed feed.
func (m *Model) SetNotifications(notifications []model.Notification) tea.Cmd {
	m.notifications = notifications
	return m.rebuild()
}

// rebuild refreshes the list items from the current feed and filter.
func (m *Model) rebuild() tea.Cmd {
	items := make([]list.Item, 0, len(m.notifications))
	for _, n := range m.notifications {
		if m.unreadOnly && n.IsRead {
			continue
		}
		items = append(items, NotificationItem{Notification: n})
	}
	return m.list.SetItems(items)
}

// Update handles messages for the feed list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Select):
			item, ok := m.list.SelectedItem().(NotificationItem)
			if !ok {
				return m, nil
			}
			return m, func() tea.Msg {
				return SelectedMsg{NotificationID: item.Notification.ID}
			}

		case key.Matches(msg, m.keys.Refresh):
			return m, func() tea.Msg { return RefreshMsg{} }

		case key.Matches(msg, m.keys.MarkAllRead):
			return m, func() tea.Msg { return MarkAllReadMsg{} }

		case key.Matches(msg, m.keys.FilterUnread):
			m.unreadOnly = !m.unreadOnly
			return m, m.rebuild()
		}
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn).
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the feed list view.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}
	return m.list.View()
}

// renderEmptyState shows guidance text when the feed is empty.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.unreadOnly {
		return style.Render("No unread notifications.\nPress u to show all.")
	}
	return style.Render("No notifications.\nPress r to refresh.")
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}
