package settings

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sparkinventory/spark-notify/internal/keys"
	"github.com/sparkinventory/spark-notify/internal/model"
	"github.com/sparkinventory/spark-notify/internal/theme"
)

// DoneMsg signals the settings view should close without changes.
type DoneMsg struct{}

// SavedMsg signals the configuration was written to disk. The app
// restarts dependent components (client timeout, page size) on receipt.
type SavedMsg struct {
	Config *model.AppConfig
}

// Model is the Bubble Tea model for the settings form.
type Model struct {
	keys       *keys.KeyMap
	configPath string
	cfg        *model.AppConfig

	form *huh.Form

	// huh binds to strings; parsed and validated on save.
	formBaseURL  string
	formTimeout  string
	formPageSize string
	formTheme    string

	statusMsg string
	statusErr bool

	width  int
	height int
}

// New creates a settings model seeded from the current configuration.
func New(k *keys.KeyMap, configPath string, cfg *model.AppConfig, width, height int) Model {
	m := Model{
		keys:       k,
		configPath: configPath,
		cfg:        cfg,
		width:      width,
		height:     height,
	}
	m.resetForm()
	return m
}

// resetForm rebuilds the huh form from the current config values.
func (m *Model) resetForm() {
	m.formBaseURL = m.cfg.Backend.BaseURL
	m.formTimeout = strconv.Itoa(m.cfg.Backend.TimeoutSec)
	m.formPageSize = strconv.Itoa(m.cfg.Feed.PageSize)
	m.formTheme = m.cfg.Display.Theme

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Backend URL").
				Description("Root URL of the Spark backend").
				Value(&m.formBaseURL).
				Validate(validateBaseURL),
			huh.NewInput().
				Title("Request timeout (seconds)").
				Value(&m.formTimeout).
				Validate(validatePositiveInt),
			huh.NewInput().
				Title("Feed page size").
				Value(&m.formPageSize).
				Validate(validatePositiveInt),
			huh.NewSelect[string]().
				Title("Theme").
				Options(
					huh.NewOption("Dark", "dark"),
					huh.NewOption("Light", "light"),
				).
				Value(&m.formTheme),
		),
	).WithShowHelp(false)
}

func validateBaseURL(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL must start with http:// or https://")
	}
	if u.Host == "" {
		return fmt.Errorf("URL must include a host")
	}
	return nil
}

func validatePositiveInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("must be a number")
	}
	if n <= 0 {
		return fmt.Errorf("must be greater than zero")
	}
	return nil
}

// Init starts the form.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// Update handles messages for the settings view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "esc" {
		m.resetForm()
		return m, func() tea.Msg { return DoneMsg{} }
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m.save()
	}
	return m, cmd
}

// save parses the validated form values, writes the config file, and
// emits SavedMsg. Parse errors cannot happen here because huh already
// ran the field validators.
func (m Model) save() (Model, tea.Cmd) {
	timeout, _ := strconv.Atoi(strings.TrimSpace(m.formTimeout))
	pageSize, _ := strconv.Atoi(strings.TrimSpace(m.formPageSize))

	updated := *m.cfg
	updated.Backend.BaseURL = strings.TrimRight(strings.TrimSpace(m.formBaseURL), "/")
	updated.Backend.TimeoutSec = timeout
	updated.Feed.PageSize = pageSize
	updated.Display.Theme = m.formTheme

	if err := model.SaveConfig(m.configPath, &updated); err != nil {
		m.statusMsg = "Failed to save: " + err.Error()
		m.statusErr = true
		m.resetForm()
		return m, m.form.Init()
	}

	m.cfg = &updated
	m.statusMsg = "Settings saved."
	m.statusErr = false
	m.resetForm()

	cfg := m.cfg
	return m, tea.Batch(
		m.form.Init(),
		func() tea.Msg { return SavedMsg{Config: cfg} },
	)
}

// View renders the settings form inside the detail panel frame.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	parts := []string{
		titleStyle.Render("Settings"),
		m.form.View(),
	}

	if m.statusMsg != "" {
		style := theme.SuccessStyle
		if m.statusErr {
			style = theme.ErrorStyle
		}
		parts = append(parts, style.Render(m.statusMsg))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, parts...)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(content)
}

// SetSize updates the settings view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
