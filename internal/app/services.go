package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/stickylist/internal/credential"
	"github.com/nhle/stickylist/internal/model"
	"github.com/nhle/stickylist/internal/remote"
	"github.com/nhle/stickylist/internal/store"
	appsync "github.com/nhle/stickylist/internal/sync"
	"github.com/nhle/stickylist/internal/validate"
)

// Services wires the session, mirror, gateway and collections shared by the
// TUI and the CLI commands.
type Services struct {
	Config      *model.AppConfig
	ConfigPath  string
	Logger      *zap.Logger
	Session     *credential.Session
	Mirror      store.Mirror
	Client      *remote.Client
	Conn        *appsync.Connectivity
	Collections *appsync.Collections

	closeMirror func() error
}

// Bootstrap opens the keyring and the mirror database described by cfg.
func Bootstrap(cfg *model.AppConfig, logger *zap.Logger) (*Services, error) {
	session, err := credential.Open(cfg.Credentials)
	if err != nil {
		return nil, fmt.Errorf("opening session: %w", err)
	}

	mirror, err := store.NewSQLiteMirror(cfg.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening mirror: %w", err)
	}

	s := NewServices(cfg, logger, session, mirror)
	s.closeMirror = mirror.Close
	return s, nil
}

// NewServices wires already opened dependencies.
func NewServices(cfg *model.AppConfig, logger *zap.Logger, session *credential.Session, mirror store.Mirror) *Services {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := remote.NewClient(cfg.API.BaseURL, cfg.API.Timeout(), session, logger)
	conn := appsync.NewConnectivity(logger)

	return &Services{
		Config:      cfg,
		Logger:      logger,
		Session:     session,
		Mirror:      mirror,
		Client:      client,
		Conn:        conn,
		Collections: appsync.NewCollections(client, mirror, conn, session, logger),
	}
}

// Close releases the mirror database.
func (s *Services) Close() error {
	if s.closeMirror == nil {
		return nil
	}
	return s.closeMirror()
}

// SignedIn reports whether a session token is stored. Protected screens and
// commands call it on every entry.
func (s *Services) SignedIn() bool {
	return s.Session.SignedIn()
}

// Login validates the form, exchanges it for a token and stores the token.
// Invalid input never reaches the network.
func (s *Services) Login(ctx context.Context, form validate.LoginForm) error {
	if err := form.Validate(); err != nil {
		return err
	}

	token, err := s.Client.Login(ctx, form.Email, form.Password)
	if err != nil {
		return err
	}
	s.Conn.SetOnline(true)

	if err := s.Session.Set(token); err != nil {
		return err
	}
	s.Logger.Info("signed in")
	return nil
}

// Register validates the form, creates the account and stores the token.
func (s *Services) Register(ctx context.Context, form validate.RegisterForm) error {
	if err := form.Validate(); err != nil {
		return err
	}

	token, err := s.Client.Register(ctx, form.Name, form.Email, form.Password)
	if err != nil {
		return err
	}
	s.Conn.SetOnline(true)

	if err := s.Session.Set(token); err != nil {
		return err
	}
	s.Logger.Info("account created")
	return nil
}

// Logout clears the stored session. The mirror is kept.
func (s *Services) Logout() error {
	if err := s.Session.Clear(); err != nil {
		return err
	}
	s.Logger.Info("signed out")
	return nil
}

// NewRefresher returns a Refresher using the configured probe interval.
func (s *Services) NewRefresher() *appsync.Refresher {
	interval := time.Duration(s.Config.Sync.ProbeIntervalSec) * time.Second
	return appsync.NewRefresher(s.Conn, interval, s.Logger)
}

// ClearCache wipes every mirror snapshot.
func (s *Services) ClearCache(ctx context.Context) error {
	if err := s.Mirror.Clear(ctx); err != nil {
		return fmt.Errorf("clearing mirror: %w", err)
	}
	return nil
}

// TestConnection checks that a service answers at baseURL using the
// configured timeout.
func (s *Services) TestConnection(ctx context.Context, baseURL string) error {
	return remote.NewClient(baseURL, s.Config.API.Timeout(), nil, s.Logger).Ping(ctx)
}

// SaveSettings writes cfg to ConfigPath and adopts it. The service URL and
// timeouts take effect on the next start.
func (s *Services) SaveSettings(cfg model.AppConfig) error {
	if s.ConfigPath != "" {
		if err := model.SaveConfig(s.ConfigPath, &cfg); err != nil {
			return err
		}
	}
	*s.Config = cfg
	s.Logger.Info("settings saved", zap.String("path", s.ConfigPath))
	return nil
}

// ErrSignedOut is returned by protected commands when no session exists.
var ErrSignedOut = errors.New("not signed in: run `stickylist login` first")
