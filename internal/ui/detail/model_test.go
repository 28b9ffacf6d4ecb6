package detail

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/stickylist/internal/keys"
	"github.com/nhle/stickylist/internal/model"
)

func sampleTask() model.Task {
	return model.Task{
		ID:          "64f1c0ffee",
		Text:        "Buy stamps",
		Color:       model.ColorGreen,
		Pinned:      true,
		CreatedAt:   time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
		ChecklistID: "c1",
	}
}

func TestViewShowsTask(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 20)
	assert.Contains(t, m.View(), "No task selected")

	m.SetTask(sampleTask())
	out := m.View()
	assert.Contains(t, out, "Buy stamps")
	assert.Contains(t, out, "green")
	assert.Contains(t, out, "pinned")
	assert.NotContains(t, out, "not synced")
}

func TestKeysEmitActions(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 20)
	m.SetTask(sampleTask())

	tests := []struct {
		key  string
		want string
	}{
		{"x", ActionComplete},
		{"p", ActionPin},
		{"d", ActionDelete},
	}
	for _, tt := range tests {
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(tt.key)})
		require.NotNil(t, cmd, tt.key)
		msg, ok := cmd().(ActionMsg)
		require.True(t, ok, tt.key)
		assert.Equal(t, tt.want, msg.Action)
		assert.Equal(t, "64f1c0ffee", msg.Task.ID)
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, BackMsg{}, cmd())
}

func TestActionsWithoutTask(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 20)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.Nil(t, cmd)
}

func TestRefresh(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 20)
	task := sampleTask()
	m.SetTask(task)

	task.Completed = true
	assert.True(t, m.Refresh([]model.Task{{ID: "other"}, task}))
	got, ok := m.Task()
	require.True(t, ok)
	assert.True(t, got.Completed)

	assert.False(t, m.Refresh(nil))
}
