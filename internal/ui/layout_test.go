package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestContentHeightReservesChrome(t *testing.T) {
	assert.Equal(t, 21, NewLayout(80, 24).ContentHeight())
	assert.Equal(t, 0, NewLayout(80, 2).ContentHeight())
}

func TestRenderShowsBannerOnlyOffline(t *testing.T) {
	l := NewLayout(80, 24)
	frame := Frame{Title: "Sticky Notes", Status: "online", Content: "body", Hints: "q quit"}

	online := l.Render(frame)
	assert.NotContains(t, online, OfflineBanner)
	assert.Contains(t, online, "Sticky Notes")
	assert.Contains(t, online, "q quit")

	frame.Offline = true
	offline := l.Render(frame)
	assert.Contains(t, offline, OfflineBanner)

	assert.Equal(t, lipgloss.Height(online), lipgloss.Height(offline))
	first := strings.Split(offline, "\n")[0]
	assert.Equal(t, 80, lipgloss.Width(first))
}
