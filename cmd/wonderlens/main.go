// Package main implements the wonderlens CLI, a pocket companion for
// young explorers: point it at something, learn about it, collect the
// cards, and chat about the world.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"wonderlens/internal/api"
	"wonderlens/internal/capability"
	"wonderlens/internal/collection"
	"wonderlens/internal/config"
	"wonderlens/internal/conversation"
	"wonderlens/internal/logging"
	"wonderlens/internal/playback"
	"wonderlens/internal/store"
)

var (
	// Global flags
	dataDir    string
	backendURL string
	verbose    bool
	timeout    time.Duration

	// Wired in PersistentPreRunE
	cfg        *config.Config
	st         *store.LocalStore
	client     *api.Client
	collected  *collection.Manager
	reconciler *conversation.Reconciler
	arena      *playback.Arena
	speaker    capability.Synthesizer
	logger     *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "wonderlens",
	Short: "wonderlens - explore, learn, and collect the world around you",
	Long: `wonderlens is a learning companion for curious kids.

Photograph an object to find out what it is, collect knowledge cards
about science, poetry, and English words, and chat with the guide
about anything you discover. Everything you collect stays on this
device.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if dataDir == "" {
			dataDir = config.DefaultDataDir()
		}
		cfg, err = config.LoadFromDataDir(dataDir)
		if err != nil {
			return err
		}
		if backendURL != "" {
			cfg.Backend.BaseURL = backendURL
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		if err := logging.Initialize(cfg.DataDir); err != nil {
			logger.Warn("debug logging unavailable", zap.Error(err))
		}
		logging.Boot("wonderlens starting (data dir %s)", cfg.DataDir)

		st, err = store.NewLocalStore(cfg.DatabasePath())
		if err != nil {
			// Degraded: commands that only talk to the backend still work.
			logger.Warn("local storage unavailable, running without persistence", zap.Error(err))
			st = nil
		}

		client = api.NewClient(api.Config{
			BaseURL:    cfg.Backend.BaseURL,
			Timeout:    cfg.BackendTimeout(),
			MaxRetries: cfg.Backend.MaxRetries,
		})
		if st != nil {
			collected = collection.NewManager(st)
			if err := collected.Load(); err != nil {
				logger.Warn("collection hydration failed", zap.Error(err))
			}
			reconciler = conversation.NewReconciler(st)
		}
		arena = playback.New()
		speaker = capability.NewFake()
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if st != nil {
			_ = st.Close()
		}
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// requireStore guards commands that cannot run degraded.
func requireStore() error {
	if st == nil {
		return fmt.Errorf("local storage is unavailable; check permissions on %s", cfg.DataDir)
	}
	return nil
}

// commandContext is cancelled by Ctrl-C and bounded by --timeout.
func commandContext() (context.Context, context.CancelFunc) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	if timeout > 0 {
		tctx, tcancel := context.WithTimeout(ctx, timeout)
		return tctx, func() { tcancel(); cancel() }
	}
	return ctx, cancel
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Data directory (default: ~/.wonderlens)")
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend", "", "Backend base URL (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Operation timeout")

	rootCmd.AddCommand(exploreCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(badgesCmd)
	rootCmd.AddCommand(shareCmd)
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
