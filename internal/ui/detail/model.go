package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/stickylist/internal/keys"
	"github.com/nhle/stickylist/internal/model"
	"github.com/nhle/stickylist/internal/theme"
)

// Actions the detail view can ask the parent to run on its task.
const (
	ActionComplete = "complete"
	ActionPin      = "pin"
	ActionDelete   = "delete"
)

// BackMsg signals the parent to navigate back to the board.
type BackMsg struct{}

// ActionMsg signals the parent to execute an action on the current task.
type ActionMsg struct {
	Action string
	Task   model.Task
}

// Model is the task detail view component.
type Model struct {
	task     *model.Task
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
}

// New creates a new detail view model.
func New(keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     keys,
		width:    width,
		height:   height,
	}
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return BackMsg{} }
		case key.Matches(msg, m.keys.Complete):
			return m, m.action(ActionComplete)
		case key.Matches(msg, m.keys.Pin):
			return m, m.action(ActionPin)
		case key.Matches(msg, m.keys.Delete):
			return m, m.action(ActionDelete)
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) action(name string) tea.Cmd {
	if m.task == nil {
		return nil
	}
	t := *m.task
	return func() tea.Msg { return ActionMsg{Action: name, Task: t} }
}

// View renders the detail view.
func (m Model) View() string {
	if m.task == nil {
		emptyStyle := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		return emptyStyle.Render("No task selected")
	}

	return m.viewport.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.task == nil {
		return ""
	}

	task := m.task
	var sections []string

	// Badges line: color + status + pin
	badges := []string{theme.NoteStyle(task.Color).Render(task.Color.Name())}
	if task.Completed {
		badges = append(badges, "  ", theme.DimmedStyle.Render("DONE"))
	} else {
		badges = append(badges, "  ", lipgloss.NewStyle().Foreground(theme.ColorGreen).Render("OPEN"))
	}
	if task.Pinned {
		badges = append(badges, "  ", "📌 pinned")
	}
	if task.IsLocal() {
		badges = append(badges, "  ", theme.LocalBadgeStyle.Render("not synced"))
	}
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, badges...))
	sections = append(sections, "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)

	if !task.CreatedAt.IsZero() {
		sections = append(sections, fmt.Sprintf(
			"%s  %s",
			metaStyle.Render("Created:"),
			valStyle.Render(task.CreatedAt.Local().Format("2006-01-02 15:04")),
		))
	}
	sections = append(sections, fmt.Sprintf(
		"%s       %s",
		metaStyle.Render("ID:"),
		valStyle.Render(task.ID),
	))

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(min(m.width-4, 80), 0)))
	sections = append(sections, "", separator, "")

	textStyle := lipgloss.NewStyle().
		Foreground(theme.ColorWhite).
		Width(max(m.width-4, 20))
	if task.Completed {
		textStyle = textStyle.Strikethrough(true)
	}
	sections = append(sections, textStyle.Render(task.Text))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetTask updates the task being displayed and re-renders the content.
func (m *Model) SetTask(t model.Task) {
	m.task = &t
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// Refresh re-renders the task when items contain a newer copy of it. It
// reports false when the task is no longer present.
func (m *Model) Refresh(items []model.Task) bool {
	if m.task == nil {
		return false
	}
	for _, t := range items {
		if t.ID == m.task.ID {
			m.task = &t
			m.viewport.SetContent(m.renderContent())
			return true
		}
	}
	return false
}

// Task returns the displayed task.
func (m Model) Task() (model.Task, bool) {
	if m.task == nil {
		return model.Task{}, false
	}
	return *m.task, true
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	if m.task != nil {
		m.viewport.SetContent(m.renderContent())
	}
}
