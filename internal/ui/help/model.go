package help

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/stickylist/internal/keys"
	"github.com/nhle/stickylist/internal/theme"
)

// Screen selects which bindings the overlay lists besides the global ones.
type Screen int

const (
	ScreenChecklists Screen = iota
	ScreenBoard
)

// bindings adapts a fixed set of groups to help.KeyMap.
type bindings [][]key.Binding

func (b bindings) ShortHelp() []key.Binding {
	if len(b) == 0 {
		return nil
	}
	return b[0]
}

func (b bindings) FullHelp() [][]key.Binding { return b }

// Model is the help overlay view.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	screen Screen
	width  int
	height int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	h.ShowAll = true
	return Model{
		keys:   keys,
		help:   h,
		width:  width,
		height: height,
	}
}

// SetScreen picks the screen whose bindings are listed.
func (m *Model) SetScreen(s Screen) {
	m.screen = s
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

func (m Model) groups() bindings {
	k := m.keys
	global := []key.Binding{k.Up, k.Down, k.Back, k.Quit, k.Help, k.Command, k.Logout}

	if m.screen == ScreenBoard {
		return bindings{
			global,
			{k.Select, k.New, k.CycleColor, k.Search, k.Refresh},
			{k.Complete, k.Pin, k.Delete},
		}
	}
	return bindings{
		global,
		{k.Select, k.New, k.Search, k.Refresh, k.Delete},
	}
}

// View renders the help overlay.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := "Keyboard Shortcuts"
	if m.screen == ScreenBoard {
		title += " / Board"
	}

	notes := theme.HelpStyle.Render(
		"Changes made while offline stay on this device.\n" +
			"Deleting needs a connection. A failed delete is undone.",
	)

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(title),
		m.help.View(m.groups()),
		"",
		notes,
	)

	return theme.PanelStyle.
		Width(max(m.width-4, 0)).
		Height(max(m.height-4, 0)).
		Render(content)
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
