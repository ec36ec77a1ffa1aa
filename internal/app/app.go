package app

import (
	"context"
	"fmt"
	"log"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sparkinventory/spark-notify/internal/auth"
	"github.com/sparkinventory/spark-notify/internal/keys"
	"github.com/sparkinventory/spark-notify/internal/model"
	"github.com/sparkinventory/spark-notify/internal/notification"
	feedsync "github.com/sparkinventory/spark-notify/internal/sync"
	"github.com/sparkinventory/spark-notify/internal/theme"
	"github.com/sparkinventory/spark-notify/internal/ui"
	"github.com/sparkinventory/spark-notify/internal/ui/detail"
	"github.com/sparkinventory/spark-notify/internal/ui/feedlist"
	helpview "github.com/sparkinventory/spark-notify/internal/ui/help"
	"github.com/sparkinventory/spark-notify/internal/ui/settings"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewFeed ViewState = iota
	ViewDetail
	ViewHelp
	ViewSettings
)

// markReadDoneMsg carries the result of a best-effort mark-read call.
type markReadDoneMsg struct {
	notificationID string
	err            error
}

// markAllReadDoneMsg carries the result of a mark-all-read fan-out.
type markAllReadDoneMsg struct {
	err error
}

// execDoneMsg carries the reconciled outcome of an execute cycle.
type execDoneMsg struct {
	outcome notification.Outcome
}

// Model is the root Bubble Tea model that manages view routing, the
// feed session, and the execute flow.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap

	authCtx  auth.Context
	poller   *feedsync.Poller
	executor *notification.Executor
	session  *notification.Session

	feedList feedlist.Model
	detail   detail.Model
	helpView helpview.Model
	settings settings.Model

	openID   string
	loading  bool
	fetchErr string
	ready    bool
}

// New creates the root application model.
func New(
	authCtx auth.Context,
	poller *feedsync.Poller,
	executor *notification.Executor,
	session *notification.Session,
	configPath string,
	cfg *model.AppConfig,
) Model {
	k := keys.DefaultKeyMap()

	return Model{
		currentView: ViewFeed,
		loading:     true,
		keys:        k,
		authCtx:     authCtx,
		poller:      poller,
		executor:    executor,
		session:     session,
		feedList:    feedlist.New(k, 80, 24),
		detail:      detail.New(k, 80, 24),
		helpView:    helpview.New(k, 80, 24),
		settings:    settings.New(k, configPath, cfg, 80, 24),
	}
}

// Init starts the background poller, which performs the first fetch.
func (m Model) Init() tea.Cmd {
	return m.poller.Start()
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.feedList.SetSize(contentWidth, contentHeight)
		m.detail.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		m.settings.SetSize(contentWidth, contentHeight)
		// Forward to the active view so huh forms can size themselves.
		return m.updateActiveView(msg)

	case feedsync.FeedResultMsg:
		m.loading = false
		if msg.Err != nil {
			// Never render a partially-mapped feed: keep whatever was
			// shown before and surface the error with a retry hint.
			m.fetchErr = msg.Err.Error()
			if msg.AuthExpired {
				m.fetchErr += "\n\nRun spark-notify -login to sign in again."
			}
			return m, m.poller.WaitForNextResult()
		}
		m.fetchErr = ""
		m.session.SetNotifications(msg.Notifications)
		cmd := m.feedList.SetNotifications(msg.Notifications)
		m.refreshOpenDetail()
		return m, tea.Batch(cmd, m.poller.WaitForNextResult())

	case feedlist.SelectedMsg:
		return m.openNotification(msg.NotificationID)

	case feedlist.RefreshMsg:
		m.loading = true
		m.poller.Refresh()
		return m, nil

	case feedlist.MarkAllReadMsg:
		return m, m.markAllRead()

	case settings.DoneMsg:
		m.currentView = ViewFeed
		return m, m.feedList.SetNotifications(m.session.Notifications())

	case settings.SavedMsg:
		m.poller.SetPageSize(msg.Config.Feed.PageSize)
		m.poller.Refresh()
		return m, nil

	case detail.BackMsg:
		m.currentView = ViewFeed
		m.openID = ""
		return m, m.feedList.SetNotifications(m.session.Notifications())

	case detail.ExecuteMsg:
		return m.beginExecute(msg.Item)

	case execDoneMsg:
		return m.finishExecute(msg.outcome)

	case markReadDoneMsg:
		if msg.err != nil {
			// Best-effort: failing to mark read never blocks the user.
			log.Printf("mark read failed for %s: %v", msg.notificationID, msg.err)
			return m, nil
		}
		m.refreshOpenDetail()
		return m, m.feedList.SetNotifications(m.session.Notifications())

	case markAllReadDoneMsg:
		if msg.err != nil {
			log.Printf("mark all read: %v", msg.err)
		}
		return m, m.feedList.SetNotifications(m.session.Notifications())

	case tea.KeyMsg:
		// Global keys that work regardless of current view.
		switch msg.String() {
		case "ctrl+c":
			m.poller.Stop()
			return m, tea.Quit

		case "q":
			if m.currentView == ViewFeed {
				m.poller.Stop()
				return m, tea.Quit
			}

		case "?":
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}
			m.previousView = m.currentView
			m.currentView = ViewHelp
			return m, nil

		case "s":
			if m.currentView == ViewFeed {
				m.previousView = m.currentView
				m.currentView = ViewSettings
				return m, m.settings.Init()
			}
		}
	}

	return m.updateActiveView(msg)
}

// updateActiveView forwards a message to whichever view is active.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.currentView {
	case ViewFeed:
		m.feedList, cmd = m.feedList.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewSettings:
		m.settings, cmd = m.settings.Update(msg)
	}
	return m, cmd
}

// openNotification switches to the detail view and fires the
// best-effort mark-read call when the notification is still unread.
func (m Model) openNotification(id string) (tea.Model, tea.Cmd) {
	n, ok := m.session.Get(id)
	if !ok {
		return m, nil
	}

	m.previousView = m.currentView
	m.currentView = ViewDetail
	m.openID = id
	m.detail.SetNotification(n)

	if n.IsRead {
		return m, nil
	}
	return m, m.markRead(id)
}

// beginExecute runs the executor's gate-and-reserve phase and shows the
// optimistic executing state before the network call goes out.
func (m Model) beginExecute(item model.ActionItem) (tea.Model, tea.Cmd) {
	executing, err := m.executor.Begin(item)
	if err != nil {
		m.detail.Flash(err.Error(), true)
		return m, nil
	}

	m.session.ApplyItem(executing)
	m.refreshOpenDetail()

	authCtx := m.authCtx
	executor := m.executor
	return m, func() tea.Msg {
		return execDoneMsg{
			outcome: executor.Finish(context.Background(), authCtx, executing),
		}
	}
}

// finishExecute reconciles an execute outcome into the session and, on
// success, refetches the feed so server-side side effects on other
// items show up.
func (m Model) finishExecute(out notification.Outcome) (tea.Model, tea.Cmd) {
	m.session.ApplyItem(out.Item)
	m.refreshOpenDetail()

	if out.Err != nil {
		m.detail.Flash(out.Err.Error(), true)
		return m, m.feedList.SetNotifications(m.session.Notifications())
	}

	message := "Done."
	if out.Result != nil && out.Result.Message != "" {
		message = out.Result.Message
	}
	m.detail.Flash(message, false)

	// Re-fetch so server-side effects on sibling items show up.
	m.poller.Refresh()
	return m, m.feedList.SetNotifications(m.session.Notifications())
}

// refreshOpenDetail pushes the session's current copy of the open
// notification into the detail view.
func (m *Model) refreshOpenDetail() {
	if m.openID == "" {
		return
	}
	if n, ok := m.session.Get(m.openID); ok {
		m.detail.Refresh(n)
	}
}

// markRead returns a command that marks one notification read.
func (m Model) markRead(id string) tea.Cmd {
	session := m.session
	authCtx := m.authCtx
	return func() tea.Msg {
		err := session.MarkRead(context.Background(), authCtx, id)
		return markReadDoneMsg{notificationID: id, err: err}
	}
}

// markAllRead returns a command that marks every unread notification read.
func (m Model) markAllRead() tea.Cmd {
	session := m.session
	authCtx := m.authCtx
	return func() tea.Msg {
		return markAllReadDoneMsg{
			err: session.MarkAllRead(context.Background(), authCtx),
		}
	}
}

// View renders the full application frame.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	headerTitle := "Spark Notifications"
	if unread := m.session.UnreadCount(); unread > 0 {
		headerTitle = fmt.Sprintf("Spark Notifications [%d unread]", unread)
	}

	status := ""
	if m.loading {
		status = "fetching..."
	}

	header := m.layout.RenderHeader(headerTitle, status)
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	if m.fetchErr != "" && m.currentView == ViewFeed {
		return theme.ErrorStyle.Render(
			"Failed to load notifications:\n"+m.fetchErr,
		) + "\n\n" + theme.HelpStyle.Render("r: retry  q: quit")
	}

	switch m.currentView {
	case ViewFeed:
		return m.feedList.View()
	case ViewDetail:
		return m.detail.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewSettings:
		return m.settings.View()
	default:
		return ""
	}
}

// keyHints returns the status bar hint line for the active view.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewDetail:
		return "tab: next item  x: execute  esc: back  ?: help"
	case ViewHelp:
		return "?: close help"
	case ViewSettings:
		return "enter: next field  esc: cancel"
	default:
		return "enter: open  r: refresh  m: mark all read  u: unread  s: settings  q: quit"
	}
}
