package testutil

import (
	"testing"

	"github.com/99designs/keyring"

	"github.com/nhle/stickylist/internal/credential"
)

// NewTestSession returns a Session backed by an in-memory keyring. A
// non-empty token is stored up front.
func NewTestSession(t *testing.T, token string) *credential.Session {
	t.Helper()

	s := credential.NewSession(keyring.NewArrayKeyring(nil))
	if token != "" {
		if err := s.Set(token); err != nil {
			t.Fatalf("seeding test session: %v", err)
		}
	}
	return s
}
