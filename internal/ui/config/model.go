package config

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/stickylist/internal/keys"
	"github.com/nhle/stickylist/internal/model"
	"github.com/nhle/stickylist/internal/theme"
)

// ConfigMode represents the current state of the settings view.
type ConfigMode int

const (
	ModeForm           ConfigMode = iota // Editing settings
	ModeValidating                       // Testing the service URL
	ModeValidateResult                   // Show the test result
)

// Tester checks that a service answers at baseURL.
type Tester func(ctx context.Context, baseURL string) error

// SavedMsg carries the edited configuration once the connection test
// passed. The root model persists it.
type SavedMsg struct {
	Config model.AppConfig
}

// DoneMsg signals the settings view should close without saving.
type DoneMsg struct{}

// ValidateResultMsg carries the result of a connection test.
type ValidateResultMsg struct {
	Err error
}

// formFields holds field values on the heap so huh's Value pointers stay
// valid across Bubble Tea model copies.
type formFields struct {
	baseURL     string
	timeout     string
	color       model.Color
	probe       string
	concurrency string
}

// Model is the Bubble Tea model for the settings screen.
type Model struct {
	mode       ConfigMode
	base       model.AppConfig
	edited     model.AppConfig
	fields     *formFields
	form       *huh.Form
	test       Tester
	keys       *keys.KeyMap
	spinner    spinner.Model
	validError error
	width      int
	height     int
}

// New creates the settings view. test is used before saving.
func New(test Tester, k *keys.KeyMap, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorBlue)

	return Model{
		test:    test,
		keys:    k,
		spinner: sp,
		fields:  &formFields{},
		width:   width,
		height:  height,
	}
}

// Open starts editing cfg.
func (m *Model) Open(cfg model.AppConfig) tea.Cmd {
	m.base = cfg
	m.mode = ModeForm
	m.validError = nil

	color, err := model.ParseColor(cfg.Display.DefaultColor)
	if err != nil {
		color = model.DefaultColor
	}
	*m.fields = formFields{
		baseURL:     cfg.API.BaseURL,
		timeout:     strconv.Itoa(cfg.API.TimeoutSec),
		color:       color,
		probe:       strconv.Itoa(cfg.Sync.ProbeIntervalSec),
		concurrency: strconv.Itoa(cfg.Sync.PrefetchConcurrency),
	}
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the settings view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ValidateResultMsg:
		if msg.Err == nil {
			cfg := m.edited
			return m, func() tea.Msg { return SavedMsg{Config: cfg} }
		}
		m.validError = msg.Err
		m.mode = ModeValidateResult
		return m, nil

	case spinner.TickMsg:
		if m.mode == ModeValidating {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeValidating:
			if key.Matches(msg, m.keys.Back) {
				return m, func() tea.Msg { return DoneMsg{} }
			}
			return m, nil
		case ModeValidateResult:
			return m.handleValidateResultKeys(msg)
		}
	}

	return m.updateForm(msg)
}

func (m Model) handleValidateResultKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "r":
		m.mode = ModeValidating
		return m, tea.Batch(m.spinner.Tick, m.validate(m.edited.API.BaseURL))
	case "enter":
		return m, m.Open(m.edited)
	case "esc":
		return m, func() tea.Msg { return DoneMsg{} }
	}
	return m, nil
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.edited = m.apply()
		m.mode = ModeValidating
		return m, tea.Batch(m.spinner.Tick, m.validate(m.edited.API.BaseURL))
	case huh.StateAborted:
		return m, func() tea.Msg { return DoneMsg{} }
	}
	return m, cmd
}

// apply copies the form fields onto the configuration being edited. The
// fields were validated by the form.
func (m Model) apply() model.AppConfig {
	cfg := m.base
	cfg.API.BaseURL = strings.TrimRight(strings.TrimSpace(m.fields.baseURL), "/")
	cfg.API.TimeoutSec, _ = strconv.Atoi(m.fields.timeout)
	cfg.Display.DefaultColor = m.fields.color.Name()
	cfg.Sync.ProbeIntervalSec, _ = strconv.Atoi(m.fields.probe)
	cfg.Sync.PrefetchConcurrency, _ = strconv.Atoi(m.fields.concurrency)
	return cfg
}

func (m Model) validate(baseURL string) tea.Cmd {
	test := m.test
	return func() tea.Msg {
		if test == nil {
			return ValidateResultMsg{}
		}
		return ValidateResultMsg{Err: test(context.Background(), baseURL)}
	}
}

func (m *Model) buildForm() *huh.Form {
	colors := make([]huh.Option[model.Color], 0, len(model.Colors()))
	for _, c := range model.Colors() {
		colors = append(colors, huh.NewOption(c.Name(), c))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Service URL").
				Description("Root of the Sticky List service").
				Placeholder("https://sticky-list.onrender.com").
				Value(&m.fields.baseURL).
				Validate(validateURL),
			huh.NewInput().
				Title("Request timeout (seconds)").
				Value(&m.fields.timeout).
				Validate(validateNumber(1)),
			huh.NewSelect[model.Color]().
				Title("Default note color").
				Options(colors...).
				Value(&m.fields.color),
			huh.NewInput().
				Title("Reconnect probe (seconds)").
				Description("Reload open lists at this interval while offline. 0 disables it").
				Value(&m.fields.probe).
				Validate(validateNumber(0)),
			huh.NewInput().
				Title("Pull concurrency").
				Value(&m.fields.concurrency).
				Validate(validateNumber(1)),
		),
	).WithWidth(m.formWidth())
}

// View renders the settings UI based on the current mode.
func (m Model) View() string {
	switch m.mode {
	case ModeValidating:
		return m.viewValidating()
	case ModeValidateResult:
		return m.viewValidateResult()
	default:
		return m.viewForm()
	}
}

func (m Model) viewForm() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Settings"),
		m.form.View(),
	)

	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m Model) viewValidating() string {
	style := lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height)

	content := fmt.Sprintf(
		"%s Testing %s...\n\nPress esc to cancel.",
		m.spinner.View(),
		m.edited.API.BaseURL,
	)

	return style.Render(content)
}

func (m Model) viewValidateResult() string {
	style := lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height)

	errStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorRed)

	content := errStyle.Render("Connection failed") + "\n\n" +
		m.validError.Error() + "\n\n" +
		lipgloss.NewStyle().Foreground(theme.ColorGray).
			Render("r retry | enter edit | esc discard")

	return style.Render(content)
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func validateURL(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("URL is required")
	}
	parsed, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("URL must include scheme and host (e.g., https://example.com)")
	}
	return nil
}

func validateNumber(minimum int) func(string) error {
	return func(s string) error {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("must be a number")
		}
		if n < minimum {
			return fmt.Errorf("must be at least %d", minimum)
		}
		return nil
	}
}
