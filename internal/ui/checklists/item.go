package checklists

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/stickylist/internal/model"
	"github.com/nhle/stickylist/internal/theme"
)

// ChecklistItem wraps a model.Checklist so it can be used in a bubbles/list.
type ChecklistItem struct {
	Checklist model.Checklist
}

// FilterValue returns the string used for filtering.
func (i ChecklistItem) FilterValue() string { return i.Checklist.Title }

// ItemDelegate implements list.ItemDelegate for rendering checklists.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single checklist line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ci, ok := item.(ChecklistItem)
	if !ok {
		return
	}
	c := ci.Checklist

	badge := ""
	if c.IsLocal() {
		badge = theme.LocalBadgeStyle.Render(" [not synced]")
	}

	count := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(taskCountLabel(c.TaskCount))

	created := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(relativeTime(c.CreatedAt))

	line := fmt.Sprintf("▤ %s%s  %s  %s", c.Title, badge, count, created)

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

func taskCountLabel(n int) string {
	if n == 1 {
		return "1 task"
	}
	return fmt.Sprintf("%d tasks", n)
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("Jan 02, 2006")
	}
}
