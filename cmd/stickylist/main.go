package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nhle/stickylist/internal/app"
	"github.com/nhle/stickylist/internal/apperror"
	"github.com/nhle/stickylist/internal/model"
)

var (
	// Global flags
	configPath string
	verbose    bool

	cfg    *model.AppConfig
	logger *zap.Logger
	svc    *app.Services
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "stickylist",
	Short: "Offline-first checklists and sticky notes",
	Long: `stickylist keeps your checklists and colored sticky-note tasks in sync
with the Sticky List service, and keeps working from a local copy when the
service cannot be reached.

Run without arguments to start the interactive interface.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = model.LoadConfig(configPath)
		if err != nil {
			return err
		}

		// The TUI owns the terminal, so it logs to a file.
		logger, err = buildLogger(cfg.Log, cmd == cmd.Root())
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if cmd.Annotations[skipServices] == "true" {
			return nil
		}
		svc, err = app.Bootstrap(cfg, logger)
		if err != nil {
			return err
		}
		svc.ConfigPath = configPath
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if svc != nil {
			if err := svc.Close(); err != nil {
				logger.Warn("closing mirror", zap.Error(err))
			}
		}
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runTUI,
}

// skipServices marks commands that need the config but no keyring or mirror.
const skipServices = "skip-services"

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", model.DefaultConfigPath(), "Config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(checklistsCmd)
	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(pullCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", apperror.UserMessage(err))
		if logger != nil {
			logger.Debug("command failed", zap.Error(err))
			_ = logger.Sync()
		}
		os.Exit(1)
	}
}

// buildLogger returns a production zap logger at the configured level.
// toFile sends output to the configured log file instead of stderr.
func buildLogger(lc model.LogConfig, toFile bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()

	level, err := zapcore.ParseLevel(lc.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	config.Level = zap.NewAtomicLevelAt(level)

	if toFile && lc.File != "" {
		if err := os.MkdirAll(filepath.Dir(lc.File), 0o755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
		config.OutputPaths = []string{lc.File}
		config.ErrorOutputPaths = []string{lc.File}
	} else {
		config.Encoding = "console"
		config.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	return config.Build()
}

func runTUI(cmd *cobra.Command, args []string) error {
	logger.Info("starting interactive session")

	p := tea.NewProgram(app.New(svc), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	final, err := p.Run()
	if m, ok := final.(app.Model); ok {
		m.Shutdown()
	}
	if err != nil && cmd.Context().Err() == nil {
		return fmt.Errorf("running interface: %w", err)
	}
	return nil
}

// requireSession is the guard of every command touching protected data.
func requireSession() error {
	if !svc.SignedIn() {
		return app.ErrSignedOut
	}
	return nil
}
