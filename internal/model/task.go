package model

import (
	"fmt"
	"strings"
	"time"
)

// Color is the background of a sticky-note task. Only the five palette
// values below are valid.
type Color string

const (
	ColorOrange Color = "#FFD180"
	ColorBlue   Color = "#80D8FF"
	ColorGray   Color = "#CFD8DC"
	ColorGreen  Color = "#AED581"
	ColorRed    Color = "#FF8A80"
)

// DefaultColor is used when a task is created without an explicit color.
const DefaultColor = ColorBlue

var palette = []struct {
	name  string
	color Color
}{
	{"orange", ColorOrange},
	{"blue", ColorBlue},
	{"gray", ColorGray},
	{"green", ColorGreen},
	{"red", ColorRed},
}

// Colors returns the palette in display order.
func Colors() []Color {
	out := make([]Color, len(palette))
	for i, p := range palette {
		out[i] = p.color
	}
	return out
}

// Valid reports whether c is one of the palette colors.
func (c Color) Valid() bool {
	for _, p := range palette {
		if p.color == c {
			return true
		}
	}
	return false
}

// Name returns the human-readable palette name, or the raw value for
// colors outside the palette.
func (c Color) Name() string {
	for _, p := range palette {
		if p.color == c {
			return p.name
		}
	}
	return string(c)
}

// Next returns the palette color following c, wrapping around.
func (c Color) Next() Color {
	for i, p := range palette {
		if p.color == c {
			return palette[(i+1)%len(palette)].color
		}
	}
	return DefaultColor
}

// ParseColor accepts either a palette name ("blue") or its hex value.
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultColor, nil
	}
	for _, p := range palette {
		if strings.EqualFold(s, p.name) || strings.EqualFold(s, string(p.color)) {
			return p.color, nil
		}
	}
	return "", fmt.Errorf("unknown color %q", s)
}

// Task is a colored sticky note inside a checklist.
type Task struct {
	ID          string    `json:"id"`
	Text        string    `json:"text"`
	Color       Color     `json:"color"`
	Completed   bool      `json:"completed"`
	Pinned      bool      `json:"pinned"`
	CreatedAt   time.Time `json:"createdAt"`
	ChecklistID string    `json:"checklistId"`
}

// NewTask returns an unsaved task draft. New tasks start neither
// completed nor pinned.
func NewTask(checklistID, text string, color Color) Task {
	if !color.Valid() {
		color = DefaultColor
	}
	return Task{
		Text:        text,
		Color:       color,
		CreatedAt:   time.Now().UTC(),
		ChecklistID: checklistID,
	}
}

// TaskPatch is a partial task update. Nil fields are left untouched and
// omitted from the request body.
type TaskPatch struct {
	Completed *bool `json:"completed,omitempty"`
	Pinned    *bool `json:"pinned,omitempty"`
}

// PinnedFirst returns tasks with pinned ones moved to the front. Relative
// order within each group is preserved.
func PinnedFirst(tasks []Task) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Pinned {
			out = append(out, t)
		}
	}
	for _, t := range tasks {
		if !t.Pinned {
			out = append(out, t)
		}
	}
	return out
}
