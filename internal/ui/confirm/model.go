package confirm

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/nhle/stickylist/internal/theme"
)

// Request describes an action awaiting confirmation. Tag is echoed back in
// the result so the caller knows what was confirmed.
type Request struct {
	Title       string
	Description string
	Tag         any
}

// ResultMsg is dispatched when the dialog closes.
type ResultMsg struct {
	Tag       any
	Confirmed bool
}

// Model is a yes/no dialog built on huh.Confirm.
type Model struct {
	form    *huh.Form
	req     Request
	confirm *bool
	width   int
	height  int
}

// New creates an idle dialog.
func New(width, height int) Model {
	return Model{width: width, height: height}
}

// Ask opens the dialog for req. The default answer is "Cancel".
func (m *Model) Ask(req Request) tea.Cmd {
	m.req = req
	answer := false
	m.confirm = &answer
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(req.Title).
				Description(req.Description).
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(m.confirm),
		),
	).WithWidth(m.formWidth())
	return m.form.Init()
}

// Update handles messages for the dialog.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		res := ResultMsg{Tag: m.req.Tag, Confirmed: *m.confirm}
		m.form = nil
		return m, func() tea.Msg { return res }
	case huh.StateAborted:
		res := ResultMsg{Tag: m.req.Tag}
		m.form = nil
		return m, func() tea.Msg { return res }
	}
	return m, cmd
}

// View renders the dialog.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}
	return theme.PanelStyle.Render(m.form.View())
}

// SetSize updates the dialog dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 8
	if w < 30 {
		w = 30
	}
	if w > 60 {
		w = 60
	}
	return w
}
