package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sparkinventory/spark-notify/internal/keys"
	"github.com/sparkinventory/spark-notify/internal/model"
	"github.com/sparkinventory/spark-notify/internal/notification"
	"github.com/sparkinventory/spark-notify/internal/theme"
)

// BackMsg signals the parent to navigate back to the feed list.
type BackMsg struct{}

// ExecuteMsg asks the parent to run the execute cycle for a confirmed
// action item. It is only emitted after the user explicitly accepted
// the confirmation prompt.
type ExecuteMsg struct {
	Item model.ActionItem
}

// confirmBinding holds the confirm value on the heap so huh's Value()
// pointer stays valid across Bubble Tea model copies.
type confirmBinding struct {
	accepted bool
}

// Model is the notification detail view: message, provenance, and the
// action item cards with their execute affordances.
type Model struct {
	notification *model.Notification
	itemIndex    int
	viewport     viewport.Model
	keys         *keys.KeyMap

	confirm     *huh.Form
	cb          *confirmBinding
	confirmItem model.ActionItem

	flash      string
	flashIsErr bool

	width  int
	height int
}

// New creates a new detail view model.
func New(k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     k,
		cb:       &confirmBinding{},
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// SetNotification shows a notification, resetting selection and any
// stale flash message.
func (m *Model) SetNotification(n model.Notification) {
	m.notification = &n
	if m.itemIndex >= len(n.ActionItems) {
		m.itemIndex = 0
	}
	m.refresh()
	m.viewport.GotoTop()
}

// Refresh replaces the displayed notification in place, keeping the
// current selection. Used when the session's copy changes underneath
// the view (execute reconciliation, feed refresh).
func (m *Model) Refresh(n model.Notification) {
	m.notification = &n
	if m.itemIndex >= len(n.ActionItems) {
		m.itemIndex = 0
	}
	m.refresh()
}

// Flash shows a transient status line at the bottom of the view.
func (m *Model) Flash(text string, isErr bool) {
	m.flash = text
	m.flashIsErr = isErr
	m.refresh()
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	// An open confirmation prompt captures all input until resolved.
	if m.confirm != nil {
		return m.updateConfirm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return BackMsg{} }

		case key.Matches(msg, m.keys.NextItem):
			m.moveSelection(1)
			return m, nil

		case key.Matches(msg, m.keys.PrevItem):
			m.moveSelection(-1)
			return m, nil

		case key.Matches(msg, m.keys.Execute):
			return m.startExecute()
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// moveSelection cycles the focused action item.
func (m *Model) moveSelection(delta int) {
	if m.notification == nil || len(m.notification.ActionItems) == 0 {
		return
	}
	n := len(m.notification.ActionItems)
	m.itemIndex = (m.itemIndex + delta + n) % n
	m.refresh()
}

// startExecute gates the focused item locally and, when executable,
// opens the confirmation prompt. Unsupported kinds never get a prompt
// and never reach the network; executing items have a disabled
// affordance.
func (m Model) startExecute() (Model, tea.Cmd) {
	if m.notification == nil || len(m.notification.ActionItems) == 0 {
		return m, nil
	}

	item := m.notification.ActionItems[m.itemIndex]
	cfg := notification.LookupType(item.Kind)

	if !cfg.CanExecute {
		m.Flash("This action type is not yet supported. Please handle manually.", true)
		return m, nil
	}
	if item.Status == model.StatusExecuting {
		// Single-flight: the affordance is dead while a call is out.
		return m, nil
	}
	if !item.Actionable() {
		m.Flash("This action item has already been completed.", true)
		return m, nil
	}

	m.cb.accepted = false
	m.confirmItem = item
	m.confirm = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf(
					"Are you sure you want to %s?",
					strings.ToLower(cfg.ActionLabel),
				)).
				Description("This can't be undone.").
				Affirmative(cfg.ActionLabel).
				Negative("Cancel").
				Value(&m.cb.accepted),
		),
	).WithWidth(m.width - 4)

	return m, m.confirm.Init()
}

// updateConfirm drives the confirmation prompt. Declining leaves the
// item untouched at its current status.
func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	mdl, cmd := m.confirm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirm = f
	}

	if m.confirm.State == huh.StateCompleted {
		accepted := m.cb.accepted
		item := m.confirmItem
		m.confirm = nil

		if !accepted {
			return m, nil
		}
		return m, func() tea.Msg {
			return ExecuteMsg{Item: item}
		}
	}
	if m.confirm.State == huh.StateAborted {
		m.confirm = nil
		return m, nil
	}

	return m, cmd
}

// View renders the detail view.
func (m Model) View() string {
	if m.notification == nil {
		return ""
	}

	if m.confirm != nil {
		return lipgloss.JoinVertical(
			lipgloss.Left,
			m.viewport.View(),
			theme.DetailPanelStyle.Render(m.confirm.View()),
		)
	}

	view := m.viewport.View()
	if m.flash != "" {
		style := theme.SuccessStyle
		if m.flashIsErr {
			style = theme.ErrorStyle
		}
		view = lipgloss.JoinVertical(lipgloss.Left, view, style.Render(m.flash))
	}
	return view
}

// refresh re-renders the viewport content.
func (m *Model) refresh() {
	if m.notification == nil {
		return
	}
	m.viewport.SetContent(m.renderContent())
}

// renderContent builds the full detail text.
func (m *Model) renderContent() string {
	n := m.notification
	var b strings.Builder

	b.WriteString(theme.HeaderStyle.Render(n.Title))
	b.WriteString("\n")
	b.WriteString(theme.DimmedStyle.Render(
		n.Timestamp.Format("Monday, January 2 • 15:04"),
	))
	b.WriteString("\n\n")
	b.WriteString(n.Message)
	b.WriteString("\n")

	if len(n.ActionItems) > 0 {
		b.WriteString("\n")
		b.WriteString(theme.HeaderStyle.Render(
			fmt.Sprintf("ACTION ITEMS (%d)", len(n.ActionItems)),
		))
		b.WriteString("\n\n")

		for i, item := range n.ActionItems {
			b.WriteString(m.renderActionItem(i, item))
			b.WriteString("\n")
		}
	}

	return theme.DetailPanelStyle.Width(m.width - 2).Render(b.String())
}

// renderActionItem draws one action item card.
func (m *Model) renderActionItem(index int, item model.ActionItem) string {
	cfg := notification.LookupType(item.Kind)

	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s %s\n",
		index+1,
		cfg.Title,
		theme.StatusStyle(string(item.Status)).Render(string(item.Status)),
	)

	if item.Description != "" {
		b.WriteString(item.Description)
		b.WriteString("\n")
	}

	if item.Payload != nil {
		prov := item.Payload.Common()
		if prov.EmailFrom != "" {
			fmt.Fprintf(&b, "From: %s\n", prov.EmailFrom)
		}
		if prov.EmailSubject != "" {
			fmt.Fprintf(&b, "Subject: %s\n", prov.EmailSubject)
		}
	}

	if p, ok := item.Payload.(*model.CreateSalesOrderPayload); ok {
		if p.CustomerName != "" {
			fmt.Fprintf(&b, "Customer: %s\n", p.CustomerName)
		}
		for _, line := range p.Items {
			fmt.Fprintf(&b, "  • %s (Qty: %g)\n", line.ItemName, line.Quantity)
		}
	}

	if item.Status == model.StatusFailed && item.LastError != "" {
		b.WriteString(theme.ErrorStyle.Render("Last attempt: " + item.LastError))
		b.WriteString("\n")
	}

	switch {
	case item.Status == model.StatusExecuting:
		b.WriteString(theme.DimmedStyle.Render("Executing..."))
	case cfg.CanExecute && item.Actionable():
		b.WriteString(theme.HelpStyle.Render(
			fmt.Sprintf("x: %s", cfg.ActionLabel),
		))
	}

	card := strings.TrimRight(b.String(), "\n")
	if index == m.itemIndex {
		return theme.SelectedActionItemStyle.Render(card) + "\n"
	}
	return theme.ActionItemStyle.Render(card) + "\n"
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	m.refresh()
}
