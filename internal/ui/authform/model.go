package authform

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/stickylist/internal/theme"
	"github.com/nhle/stickylist/internal/validate"
)

// Mode selects between the login and the registration form.
type Mode int

const (
	ModeLogin Mode = iota
	ModeRegister
)

// LoginSubmitMsg is dispatched when the login form passes validation.
type LoginSubmitMsg struct {
	Form validate.LoginForm
}

// RegisterSubmitMsg is dispatched when the registration form passes
// validation.
type RegisterSubmitMsg struct {
	Form validate.RegisterForm
}

// SwitchModeMsg asks the root model to show the other form.
type SwitchModeMsg struct {
	Mode Mode
}

// QuitMsg is dispatched when the user aborts the form.
type QuitMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	name            string
	email           string
	password        string
	confirmPassword string
}

// Model is the Bubble Tea model for the login and registration screens.
type Model struct {
	mode    Mode
	form    *huh.Form
	fb      *formBindings
	errMsg  string
	notice  string
	pending bool
	width   int
	height  int
}

// New creates a form in mode.
func New(mode Mode, width, height int) Model {
	return Model{
		mode:   mode,
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Mode returns the current form mode.
func (m Model) Mode() Mode { return m.mode }

// Start (re)builds the form, keeping the email already typed. The
// passwords are cleared.
func (m *Model) Start() tea.Cmd {
	m.fb.password = ""
	m.fb.confirmPassword = ""
	m.pending = false
	if m.mode == ModeRegister {
		m.form = m.buildRegisterForm()
	} else {
		m.form = m.buildLoginForm()
	}
	return m.form.Init()
}

// SetError shows a server-side or network error above the form.
func (m *Model) SetError(msg string) {
	m.errMsg = msg
	m.pending = false
}

// SetNotice shows an informational line above the form, e.g. after the
// session expired.
func (m *Model) SetNotice(msg string) {
	m.notice = msg
}

// Update handles messages for the form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil || m.pending {
		return m, nil
	}

	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "ctrl+r" {
		next := ModeRegister
		if m.mode == ModeRegister {
			next = ModeLogin
		}
		return m, func() tea.Msg { return SwitchModeMsg{Mode: next} }
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.pending = true
		m.errMsg = ""
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return QuitMsg{} }
	}

	return m, cmd
}

// View renders the form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "Sticky Notes"
	if m.mode == ModeRegister {
		titleText = "Create an Account"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	parts := []string{titleStyle.Render(titleText)}
	if m.notice != "" {
		parts = append(parts, theme.NoticeStyle.Render(m.notice))
	}
	if m.errMsg != "" {
		parts = append(parts, theme.ErrorStyle.Render(m.errMsg))
	}
	if m.pending {
		parts = append(parts, theme.HelpStyle.Render("Please wait..."))
	} else {
		parts = append(parts, m.form.View())
	}

	switchHint := "ctrl+r: create an account"
	if m.mode == ModeRegister {
		switchHint = "ctrl+r: back to login"
	}
	parts = append(parts, theme.HelpStyle.Render(switchHint))

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildLoginForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Placeholder("you@example.com").
				Value(&m.fb.email).
				Validate(validate.Email),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password).
				Validate(validate.LoginPassword),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m *Model) buildRegisterForm() *huh.Form {
	fb := m.fb
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&fb.name).
				Validate(validate.Name),
			huh.NewInput().
				Title("Email").
				Placeholder("you@example.com").
				Value(&fb.email).
				Validate(validate.Email),
			huh.NewInput().
				Title("Password").
				Description("8+ characters with upper, lower, number and special character").
				EchoMode(huh.EchoModePassword).
				Value(&fb.password).
				Validate(validate.RegisterPassword),
			huh.NewInput().
				Title("Confirm Password").
				EchoMode(huh.EchoModePassword).
				Value(&fb.confirmPassword).
				Validate(func(s string) error {
					return validate.Confirmation(fb.password)(s)
				}),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) handleSubmit() tea.Cmd {
	if m.mode == ModeRegister {
		form := validate.RegisterForm{
			Name:            m.fb.name,
			Email:           m.fb.email,
			Password:        m.fb.password,
			ConfirmPassword: m.fb.confirmPassword,
		}
		return func() tea.Msg { return RegisterSubmitMsg{Form: form} }
	}

	form := validate.LoginForm{
		Email:    m.fb.email,
		Password: m.fb.password,
	}
	return func() tea.Msg { return LoginSubmitMsg{Form: form} }
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 80 {
		w = 80
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 8
	if h < 10 {
		h = 10
	}
	return h
}
