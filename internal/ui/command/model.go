package command

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/stickylist/internal/theme"
)

// Palette commands.
const (
	Reload     = "reload"
	Logout     = "logout"
	Help       = "help"
	ClearCache = "clear-cache"
	Settings   = "settings"
	Quit       = "quit"
)

// Commands lists every command the palette accepts, in completion order.
var Commands = []string{Reload, Logout, Help, ClearCache, Settings, Quit}

var aliases = map[string]string{
	"r":       Reload,
	"refresh": Reload,
	"q":       Quit,
	"?":       Help,
	"config":  Settings,
}

// CommandMsg is emitted when the user executes a known command.
type CommandMsg string

// CloseMsg is emitted when the palette is dismissed without a command.
type CloseMsg struct{}

// Resolve maps input to a known command, accepting aliases.
func Resolve(input string) (string, bool) {
	input = strings.ToLower(strings.TrimSpace(input))
	if alias, ok := aliases[input]; ok {
		return alias, true
	}
	for _, c := range Commands {
		if c == input {
			return c, true
		}
	}
	return "", false
}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	errMsg string
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = strings.Join(Commands, ", ")
	ti.Prompt = ": "
	ti.ShowSuggestions = true
	ti.SetSuggestions(Commands)
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Open clears the palette and focuses the input.
func (m *Model) Open() tea.Cmd {
	m.input.Reset()
	m.errMsg = ""
	return m.input.Focus()
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "enter":
			raw := strings.TrimSpace(m.input.Value())
			if raw == "" {
				return m, nil
			}
			cmd, ok := Resolve(raw)
			if !ok {
				m.errMsg = "Unknown command: " + raw
				return m, nil
			}
			m.input.Reset()
			m.input.Blur()
			return m, func() tea.Msg { return CommandMsg(cmd) }

		case "esc":
			m.input.Reset()
			m.input.Blur()
			return m, func() tea.Msg { return CloseMsg{} }
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the command palette.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	parts := []string{titleStyle.Render("Command Palette"), m.input.View()}
	if m.errMsg != "" {
		parts = append(parts, theme.ErrorStyle.Render(m.errMsg))
	}
	parts = append(parts, theme.HelpStyle.Render("tab completes | esc closes"))

	return theme.PanelStyle.
		Width(max(m.width-4, 0)).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}
