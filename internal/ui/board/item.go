package board

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/stickylist/internal/model"
	"github.com/nhle/stickylist/internal/theme"
)

// TaskItem wraps a model.Task so it can be used in a bubbles/list.
type TaskItem struct {
	Task model.Task
}

// FilterValue returns the string used for filtering.
func (i TaskItem) FilterValue() string { return i.Task.Text }

// ItemDelegate implements list.ItemDelegate for rendering sticky notes.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single task line: color swatch, checkbox, text and pin.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ti, ok := item.(TaskItem)
	if !ok {
		return
	}
	t := ti.Task

	swatch := theme.NoteStyle(t.Color).Render(" ")

	check := "[ ]"
	if t.Completed {
		check = "[x]"
	}

	text := t.Text
	if t.Completed {
		text = theme.DimmedStyle.Render(text)
	}

	pin := ""
	if t.Pinned {
		pin = " 📌"
	}

	badge := ""
	if t.IsLocal() {
		badge = theme.LocalBadgeStyle.Render(" [not synced]")
	}

	line := fmt.Sprintf("%s %s %s%s%s", swatch, check, text, pin, badge)

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}
