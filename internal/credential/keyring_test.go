package credential

import (
	"errors"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/stickylist/internal/apperror"
)

// brokenRing fails every operation, standing in for a locked or missing
// system keychain.
type brokenRing struct{ keyring.Keyring }

var errLocked = errors.New("keychain locked")

func (brokenRing) Get(string) (keyring.Item, error) { return keyring.Item{}, errLocked }
func (brokenRing) Set(keyring.Item) error           { return errLocked }
func (brokenRing) Remove(string) error              { return errLocked }

func TestSession_SetGetClear(t *testing.T) {
	s := NewSession(keyring.NewArrayKeyring(nil))

	_, ok, err := s.Get()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, s.SignedIn())

	require.NoError(t, s.Set("jwt-abc"))
	token, ok, err := s.Get()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "jwt-abc", token)
	assert.True(t, s.SignedIn())

	require.NoError(t, s.Clear())
	_, ok, err = s.Get()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSession_ClearIsIdempotent(t *testing.T) {
	s := NewSession(keyring.NewArrayKeyring(nil))

	require.NoError(t, s.Clear())
	require.NoError(t, s.Clear())

	_, ok, err := s.Get()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSession_RejectsEmptyToken(t *testing.T) {
	s := NewSession(keyring.NewArrayKeyring(nil))

	err := s.Set("  ")
	assert.True(t, apperror.IsValidation(err))
}

func TestSession_BackendFailuresAreStorageErrors(t *testing.T) {
	s := NewSession(brokenRing{})

	err := s.Set("jwt")
	assert.True(t, apperror.IsStorage(err))
	assert.ErrorIs(t, err, errLocked)

	_, _, err = s.Get()
	assert.True(t, apperror.IsStorage(err))

	assert.True(t, apperror.IsStorage(s.Clear()))
	assert.False(t, s.SignedIn())
}
