package checklists

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/stickylist/internal/keys"
	"github.com/nhle/stickylist/internal/model"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newScreen(t *testing.T) Model {
	t.Helper()
	m := New(keys.DefaultKeyMap(), 80, 20)
	m.SetItems([]model.Checklist{
		{ID: "c1", Title: "Groceries", TaskCount: 3},
		{ID: "c2", Title: "Trip to Lisbon"},
	})
	return m
}

func TestLoadingUntilItemsArrive(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 20)
	assert.Contains(t, m.View(), "Loading checklists...")

	m.SetItems(nil)
	assert.Contains(t, m.View(), "No checklists yet.")
}

func TestOpenAndDeleteSelected(t *testing.T) {
	m := newScreen(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, OpenMsg{Checklist: model.Checklist{ID: "c1", Title: "Groceries", TaskCount: 3}}, cmd())

	_, cmd = m.Update(runes("d"))
	require.NotNil(t, cmd)
	del, ok := cmd().(DeleteRequestMsg)
	require.True(t, ok)
	assert.Equal(t, "c1", del.Checklist.ID)
}

func TestCreateSubmitsTrimmedTitle(t *testing.T) {
	m := newScreen(t)

	m, _ = m.Update(runes("n"))
	require.True(t, m.Capturing())
	for _, r := range "  Books " {
		m, _ = m.Update(runes(string(r)))
	}

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, CreateMsg{Title: "Books"}, cmd())
	assert.False(t, m.Capturing())
}

func TestSearchKeepsFilterAcrossUpdates(t *testing.T) {
	m := newScreen(t)

	m, _ = m.Update(runes("/"))
	for _, r := range "lisbon" {
		m, _ = m.Update(runes(string(r)))
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Len(t, m.list.Items(), 1)

	m.SetItems([]model.Checklist{
		{ID: "c1", Title: "Groceries"},
		{ID: "c2", Title: "Trip to Lisbon"},
		{ID: "c3", Title: "Lisbon food"},
	})
	assert.Len(t, m.list.Items(), 2)
	assert.Contains(t, m.View(), "filter: lisbon")
}

func TestRefreshKey(t *testing.T) {
	m := newScreen(t)

	_, cmd := m.Update(runes("r"))
	require.NotNil(t, cmd)
	assert.Equal(t, RefreshMsg{}, cmd())
}
