package checklists

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

// OpenMsg is sent when the user opens a checklist.
type OpenMsg struct {
	Checklist model.Checklist
}

// CreateMsg is sent when the user submits a new checklist title.
type CreateMsg struct {
	Title string
}

// DeleteRequestMsg is sent when the user asks to delete a checklist. The
// root model confirms before deleting.
type DeleteRequestMsg struct {
	Checklist model.Checklist
}

// RefreshMsg asks the root model to reload the collection.
type RefreshMsg struct{}

type inputMode int

const (
	modeBrowse inputMode = iota
	modeSearch
	modeCreate
)

// Model is the checklists screen.
type Model struct {
	list        list.Model
	keys        *keys.KeyMap
	all         []model.Checklist
	query       string
	mode        inputMode
	searchInput textinput.Model
	titleInput  textinput.Model
	loading     bool
	width       int
	height      int
}

// New creates the checklists screen.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.Title = "My Checklists"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search checklists..."
	si.Prompt = "/ "
	si.Width = width - 4

	ti := textinput.New()
	ti.Placeholder = "New checklist title"
	ti.Prompt = "+ "
	ti.CharLimit = 120
	ti.Width = width - 4

	return Model{
		list:        l,
		keys:        k,
		searchInput: si,
		titleInput:  ti,
		loading:     true,
		width:       width,
		height:      height,
	}
}

// SetItems replaces the displayed working set, keeping the search query.
func (m *Model) SetItems(items []model.Checklist) tea.Cmd {
	m.all = items
	m.loading = false
	return m.applyFilter()
}

// SetLoading shows the loading placeholder until the next SetItems.
func (m *Model) SetLoading(loading bool) {
	m.loading = loading
}

// Capturing reports whether a text input has focus, so global keys must
// not be intercepted.
func (m Model) Capturing() bool {
	return m.mode != modeBrowse
}

func (m *Model) applyFilter() tea.Cmd {
	filtered := appsync.Filter(m.all, m.query)
	items := make([]list.Item, len(filtered))
	for i, c := range filtered {
		items[i] = ChecklistItem{Checklist: c}
	}
	return m.list.SetItems(items)
}

// Update handles messages for the checklists screen.
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

// handleSearchKeys filters as the user types. Enter keeps the filter, esc
// clears it.
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

func (m Model) handleCreateKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		title := strings.TrimSpace(m.titleInput.Value())
		if title == "" {
			return m, nil
		}
		m.mode = modeBrowse
		m.titleInput.Reset()
		m.titleInput.Blur()
		return m, func() tea.Msg { return CreateMsg{Title: title} }

	case "esc":
		m.mode = modeBrowse
		m.titleInput.Reset()
		m.titleInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.titleInput, cmd = m.titleInput.Update(msg)
	return m, cmd
}

func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		item, ok := m.list.SelectedItem().(ChecklistItem)
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg { return OpenMsg{Checklist: item.Checklist} }

	case key.Matches(msg, m.keys.Search):
		m.mode = modeSearch
		m.searchInput.SetValue(m.query)
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.New):
		m.mode = modeCreate
		m.titleInput.Reset()
		return m, m.titleInput.Focus()

	case key.Matches(msg, m.keys.Delete):
		item, ok := m.list.SelectedItem().(ChecklistItem)
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg { return DeleteRequestMsg{Checklist: item.Checklist} }

	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		return m, func() tea.Msg { return RefreshMsg{} }
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the checklists screen.
func (m Model) View() string {
	var top string
	switch m.mode {
	case modeSearch:
		top = m.inputBar(m.searchInput.View())
	case modeCreate:
		top = m.inputBar(m.titleInput.View())
	default:
		if m.query != "" {
			top = theme.HelpStyle.Render("  filter: " + m.query + "  (/ to edit, esc in search to clear)")
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

// renderEmptyState shows guidance text when no checklists are available.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(max(m.height-2, 1)).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	switch {
	case m.loading:
		return style.Render("Loading checklists...")
	case m.query != "":
		return style.Render("No checklists match your search.")
	default:
		return style.Render("No checklists yet.\n\nPress n to create one.")
	}
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
	m.titleInput.Width = width - 4
}
