package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/stickylist/internal/theme"
)

// OfflineBanner is shown while the last remote call failed.
const OfflineBanner = "Offline Mode - changes are kept on this device"

// chromeRows is the number of rows outside the content area: the title
// bar, the banner row and the status line.
const chromeRows = 3

// Frame is one rendered screen: a title bar with the session state on the
// right, a banner row that is blank while online, the active view and a
// status line.
type Frame struct {
	Title   string
	Status  string
	Offline bool
	Content string
	Hints   string
}

// Layout sizes the frame to the terminal.
type Layout struct {
	Width  int
	Height int
}

// NewLayout creates a Layout for a width x height terminal.
func NewLayout(width, height int) Layout {
	return Layout{Width: width, Height: height}
}

// ContentWidth is the width handed to the active view.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight is the height handed to the active view. The banner row
// is always reserved so views do not jump when connectivity changes.
func (l Layout) ContentHeight() int {
	return max(l.Height-chromeRows, 0)
}

// Render composes f into the full terminal view.
func (l Layout) Render(f Frame) string {
	banner := ""
	if f.Offline {
		banner = theme.OfflineBannerStyle.Width(l.Width).Render(OfflineBanner)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		l.titleBar(f.Title, f.Status),
		banner,
		f.Content,
		l.padded(theme.StatusBarStyle, theme.StatusBarStyle.Render(f.Hints)),
	)
}

func (l Layout) titleBar(title, status string) string {
	left := theme.HeaderStyle.Render(title)
	right := theme.HeaderStyle.Align(lipgloss.Right).Render(status)

	gap := max(l.Width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, l.blank(theme.HeaderStyle, gap), right)
}

// padded extends a rendered bar with style's background to the full width.
func (l Layout) padded(style lipgloss.Style, rendered string) string {
	gap := max(l.Width-lipgloss.Width(rendered), 0)
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered, l.blank(style, gap))
}

func (l Layout) blank(style lipgloss.Style, width int) string {
	return lipgloss.NewStyle().
		Width(width).
		Background(style.GetBackground()).
		Render("")
}
