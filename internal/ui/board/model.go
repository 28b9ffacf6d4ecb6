package board

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/stickylist/internal/keys"
	"github.com/nhle/stickylist/internal/model"
	appsync "github.com/nhle/stickylist/internal/sync"
	"github.com/nhle/stickylist/internal/theme"
)

// CreateMsg is sent when the user submits a new task.
type CreateMsg struct {
	Text  string
	Color model.Color
}

// ToggleCompletedMsg is sent when the user flips a task's completed flag.
type ToggleCompletedMsg struct {
	TaskID string
}

// TogglePinnedMsg is sent when the user flips a task's pinned flag.
type TogglePinnedMsg struct {
	TaskID string
}

// DeleteRequestMsg is sent when the user asks to delete a task. The root
// model confirms before deleting.
type DeleteRequestMsg struct {
	Task model.Task
}

// OpenTaskMsg is sent when the user opens a task's detail view.
type OpenTaskMsg struct {
	Task model.Task
}

// BackMsg returns to the checklists screen.
type BackMsg struct{}

// RefreshMsg asks the root model to reload the board.
type RefreshMsg struct{}

type inputMode int

const (
	modeBrowse inputMode = iota
	modeSearch
	modeCreate
)

// Model is the task board of one checklist.
type Model struct {
	list        list.Model
	keys        *keys.KeyMap
	checklist   model.Checklist
	all         []model.Task
	query       string
	mode        inputMode
	color       model.Color
	searchInput textinput.Model
	textInput   textinput.Model
	loading     bool
	width       int
	height      int
}

// New creates an empty board. Open binds it to a checklist.
func New(k *keys.KeyMap, defaultColor model.Color, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-3)
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search tasks..."
	si.Prompt = "/ "
	si.Width = width - 4

	ti := textinput.New()
	ti.Placeholder = "Add a new task..."
	ti.Prompt = "+ "
	ti.CharLimit = 500
	ti.Width = width - 12

	if !defaultColor.Valid() {
		defaultColor = model.DefaultColor
	}

	return Model{
		list:        l,
		keys:        k,
		color:       defaultColor,
		searchInput: si,
		textInput:   ti,
		width:       width,
		height:      height,
	}
}

// Open resets the board for checklist c.
func (m *Model) Open(c model.Checklist) tea.Cmd {
	m.checklist = c
	m.all = nil
	m.query = ""
	m.mode = modeBrowse
	m.loading = true
	m.searchInput.Reset()
	m.textInput.Reset()
	m.list.Title = c.Title
	m.list.ResetSelected()
	return m.list.SetItems(nil)
}

// SetDefaultColor changes the color new tasks start with.
func (m *Model) SetDefaultColor(c model.Color) {
	if c.Valid() {
		m.color = c
	}
}

// Checklist returns the checklist shown on the board.
func (m Model) Checklist() model.Checklist { return m.checklist }

// SetItems replaces the displayed working set, keeping the search query.
// Pinned tasks are listed first.
func (m *Model) SetItems(tasks []model.Task) tea.Cmd {
	m.all = tasks
	m.loading = false
	return m.applyFilter()
}

// SetLoading shows the loading placeholder until the next SetItems.
func (m *Model) SetLoading(loading bool) {
	m.loading = loading
}

// Capturing reports whether a text input has focus.
func (m Model) Capturing() bool {
	return m.mode != modeBrowse
}

func (m *Model) applyFilter() tea.Cmd {
	filtered := model.PinnedFirst(appsync.Filter(m.all, m.query))
	items := make([]list.Item, len(filtered))
	for i, t := range filtered {
		items[i] = TaskItem{Task: t}
	}
	return m.list.SetItems(items)
}

// Update handles messages for the board.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch m.mode {
		case modeSearch:
			return m.handleSearchKeys(msg)
		case modeCreate:
			return m.handleCreateKeys(msg)
		default:
			return m.handleNormalKeys(msg)
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.mode = modeBrowse
		m.searchInput.Blur()
		return m, nil

	case "esc":
		m.mode = modeBrowse
		m.searchInput.Reset()
		m.searchInput.Blur()
		m.query = ""
		return m, m.applyFilter()
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.query = m.searchInput.Value()
	return m, tea.Batch(cmd, m.applyFilter())
}

// handleCreateKeys edits the new task. Tab cycles the note color.
func (m Model) handleCreateKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case msg.String() == "enter":
		text := strings.TrimSpace(m.textInput.Value())
		if text == "" {
			return m, nil
		}
		color := m.color
		m.mode = modeBrowse
		m.textInput.Reset()
		m.textInput.Blur()
		return m, func() tea.Msg { return CreateMsg{Text: text, Color: color} }

	case msg.String() == "esc":
		m.mode = modeBrowse
		m.textInput.Reset()
		m.textInput.Blur()
		return m, nil

	case key.Matches(msg, m.keys.CycleColor):
		m.color = m.color.Next()
		return m, nil
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return BackMsg{} }

	case key.Matches(msg, m.keys.Select):
		if t, ok := m.selected(); ok {
			return m, func() tea.Msg { return OpenTaskMsg{Task: t} }
		}
		return m, nil

	case key.Matches(msg, m.keys.Search):
		m.mode = modeSearch
		m.searchInput.SetValue(m.query)
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.New):
		m.mode = modeCreate
		m.textInput.Reset()
		return m, m.textInput.Focus()

	case key.Matches(msg, m.keys.Complete):
		if t, ok := m.selected(); ok {
			return m, func() tea.Msg { return ToggleCompletedMsg{TaskID: t.ID} }
		}
		return m, nil

	case key.Matches(msg, m.keys.Pin):
		if t, ok := m.selected(); ok {
			return m, func() tea.Msg { return TogglePinnedMsg{TaskID: t.ID} }
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if t, ok := m.selected(); ok {
			return m, func() tea.Msg { return DeleteRequestMsg{Task: t} }
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		return m, func() tea.Msg { return RefreshMsg{} }
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) selected() (model.Task, bool) {
	item, ok := m.list.SelectedItem().(TaskItem)
	if !ok {
		return model.Task{}, false
	}
	return item.Task, true
}

// View renders the board.
func (m Model) View() string {
	var top string
	switch m.mode {
	case modeSearch:
		top = m.inputBar(m.searchInput.View())
	case modeCreate:
		swatch := theme.NoteStyle(m.color).Render(m.color.Name())
		top = m.inputBar(m.textInput.View() + "  " + swatch + theme.HelpStyle.Render(" tab: color"))
	default:
		if m.query != "" {
			top = theme.HelpStyle.Render("  filter: " + m.query)
		}
	}

	body := m.list.View()
	if len(m.list.Items()) == 0 {
		body = m.renderEmptyState()
	}

	if top == "" {
		return body
	}
	return lipgloss.JoinVertical(lipgloss.Left, top, body)
}

func (m Model) inputBar(s string) string {
	return lipgloss.NewStyle().
		Foreground(theme.ColorWhite).
		Padding(0, 1).
		Render(s)
}

func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(max(m.height-3, 1)).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	switch {
	case m.loading:
		return style.Render("Loading tasks...")
	case m.query != "":
		return style.Render("No tasks match your search.")
	default:
		return style.Render("No tasks yet.\n\nPress n to add a sticky note.")
	}
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-3)
	m.searchInput.Width = width - 4
	m.textInput.Width = width - 12
}
