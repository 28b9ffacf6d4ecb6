package testutil

import (
	"testing"

	"github.com/nhle/stickylist/internal/store"
)

// NewTestMirror creates an in-memory SQLiteMirror with all migrations applied.
// It automatically closes the mirror when the test completes.
func NewTestMirror(t *testing.T) *store.SQLiteMirror {
	t.Helper()

	m, err := store.NewSQLiteMirror(":memory:")
	if err != nil {
		t.Fatalf("creating test mirror: %v", err)
	}

	t.Cleanup(func() {
		if err := m.Close(); err != nil {
			t.Errorf("closing test mirror: %v", err)
		}
	})

	return m
}
