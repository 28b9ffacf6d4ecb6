package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    Color
		wantErr bool
	}{
		{in: "", want: DefaultColor},
		{in: "blue", want: ColorBlue},
		{in: "RED", want: ColorRed},
		{in: "#aed581", want: ColorGreen},
		{in: "purple", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestColorNextCyclesPalette(t *testing.T) {
	c := ColorOrange
	seen := map[Color]bool{}
	for range Colors() {
		seen[c] = true
		c = c.Next()
	}
	assert.Len(t, seen, 5)
	assert.Equal(t, ColorOrange, c)
	assert.Equal(t, DefaultColor, Color("#000000").Next())
}

func TestNewTaskDefaults(t *testing.T) {
	task := NewTask("c1", "Buy milk", "bogus")

	assert.Equal(t, DefaultColor, task.Color)
	assert.False(t, task.Completed)
	assert.False(t, task.Pinned)
	assert.Equal(t, "c1", task.ChecklistID)
	assert.Empty(t, task.ID)
}

func TestLocalIDs(t *testing.T) {
	a, b := NewLocalID(), NewLocalID()

	assert.NotEqual(t, a, b)
	assert.True(t, IsLocalID(a))
	assert.False(t, IsLocalID("64f1c0ffee"))
	assert.True(t, Task{ID: a}.IsLocal())
	assert.Equal(t, "x", Checklist{}.WithID("x").GetID())
}

func TestPinnedFirstKeepsRelativeOrder(t *testing.T) {
	tasks := []Task{
		{ID: "a"},
		{ID: "b", Pinned: true},
		{ID: "c"},
		{ID: "d", Pinned: true},
	}

	got := PinnedFirst(tasks)

	ids := make([]string, len(got))
	for i, task := range got {
		ids[i] = task.ID
	}
	assert.Equal(t, []string{"b", "d", "a", "c"}, ids)
	assert.Equal(t, "a", tasks[0].ID, "input must not be reordered")
}
