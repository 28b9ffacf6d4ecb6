package command

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"reload", Reload, true},
		{"  Logout ", Logout, true},
		{"r", Reload, true},
		{"q", Quit, true},
		{"clear-cache", ClearCache, true},
		{"config", Settings, true},
		{"sync", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := Resolve(tt.input)
		assert.Equal(t, tt.ok, ok, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}
}

func typeText(m Model, s string) Model {
	for _, r := range s {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestEnterEmitsKnownCommand(t *testing.T) {
	m := New(60, 20)
	m.Open()
	m = typeText(m, "logout")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, CommandMsg(Logout), cmd())
	assert.Empty(t, m.errMsg)
}

func TestEnterRejectsUnknownCommand(t *testing.T) {
	m := New(60, 20)
	m.Open()
	m = typeText(m, "frobnicate")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Contains(t, m.errMsg, "frobnicate")
}

func TestEscCloses(t *testing.T) {
	m := New(60, 20)
	m.Open()

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, CloseMsg{}, cmd())
}
