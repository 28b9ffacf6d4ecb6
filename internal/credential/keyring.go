package credential

import (
	"errors"
	"fmt"
	"strings"

	"github.com/99designs/keyring"

	"github.com/nhle/stickylist/internal/apperror"
	"github.com/nhle/stickylist/internal/model"
)

// TokenKey is the keyring key holding the bearer token.
const TokenKey = "token"

// openKeyring returns a keyring configured from cfg.
func openKeyring(cfg model.CredentialConfig) (keyring.Keyring, error) {
	backends := []keyring.BackendType{
		keyring.KeychainBackend,
		keyring.SecretServiceBackend,
		keyring.WinCredBackend,
		keyring.PassBackend,
		keyring.FileBackend,
	}
	if cfg.Backend != "" {
		backends = []keyring.BackendType{keyring.BackendType(strings.ToLower(cfg.Backend))}
	}

	ring, err := keyring.Open(keyring.Config{
		ServiceName:              cfg.ServiceName,
		AllowedBackends:          backends,
		FileDir:                  cfg.FileDir,
		FilePasswordFunc:         keyring.FixedStringPrompt(cfg.ServiceName + "-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Session holds the bearer credential for the signed-in user.
type Session struct {
	ring keyring.Keyring
}

// Open returns a Session backed by the system keyring described by cfg.
func Open(cfg model.CredentialConfig) (*Session, error) {
	ring, err := openKeyring(cfg)
	if err != nil {
		return nil, apperror.Storage("open credential store", err)
	}
	return NewSession(ring), nil
}

// NewSession wraps an already opened keyring.
func NewSession(ring keyring.Keyring) *Session {
	return &Session{ring: ring}
}

// Set persists token durably.
func (s *Session) Set(token string) error {
	if strings.TrimSpace(token) == "" {
		return apperror.ValidationFailed("token", "empty session token")
	}

	err := s.ring.Set(keyring.Item{
		Key:   TokenKey,
		Data:  []byte(token),
		Label: "stickylist session",
	})
	if err != nil {
		return apperror.Storage("saving session", fmt.Errorf("setting credential %q: %w", TokenKey, err))
	}
	return nil
}

// Get returns the persisted token. ok is false when no token is stored.
func (s *Session) Get() (token string, ok bool, err error) {
	item, err := s.ring.Get(TokenKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, apperror.Storage("reading session", fmt.Errorf("getting credential %q: %w", TokenKey, err))
	}
	if len(item.Data) == 0 {
		return "", false, nil
	}
	return string(item.Data), true, nil
}

// Clear removes the persisted token. Clearing an absent token is not an
// error.
func (s *Session) Clear() error {
	err := s.ring.Remove(TokenKey)
	if err == nil || errors.Is(err, keyring.ErrKeyNotFound) {
		return nil
	}
	if _, ok, getErr := s.Get(); getErr == nil && !ok {
		// Some backends report a missing key with their own error type.
		return nil
	}
	return apperror.Storage("clearing session", fmt.Errorf("deleting credential %q: %w", TokenKey, err))
}

// SignedIn reports whether a token is present. Lookup failures count as
// signed out.
func (s *Session) SignedIn() bool {
	_, ok, err := s.Get()
	return err == nil && ok
}
