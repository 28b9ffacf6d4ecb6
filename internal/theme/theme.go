package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/stickylist/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue   = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen  = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed    = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorGray   = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite  = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for top-level section headers and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// OfflineBannerStyle renders the offline notice above the content.
var OfflineBannerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#1A202C")).
	Background(ColorYellow).
	Padding(0, 1)

// PanelStyle wraps forms, dialogs and the help view.
var PanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// DimmedStyle renders completed tasks.
var DimmedStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Strikethrough(true)

// LocalBadgeStyle marks entries that only exist on this device.
var LocalBadgeStyle = lipgloss.NewStyle().
	Foreground(ColorYellow).
	Bold(true)

// ErrorStyle renders inline form and alert errors.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(ColorRed)

// NoticeStyle renders transient, non-blocking notices.
var NoticeStyle = lipgloss.NewStyle().
	Foreground(ColorGreen)

// NoteStyle returns the swatch style for a sticky-note color.
func NoteStyle(c model.Color) lipgloss.Style {
	if !c.Valid() {
		c = model.DefaultColor
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("#1A202C")).
		Background(lipgloss.Color(string(c))).
		Padding(0, 1)
}
