package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"threadpulse/internal/api"
	"threadpulse/internal/config"
	"threadpulse/internal/generator"
	"threadpulse/internal/ledger"
	"threadpulse/internal/orchestrator"
	"threadpulse/internal/page"
	"threadpulse/internal/pacing"
	"threadpulse/internal/reddit"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	configPath string
	verbose    bool

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "threadpulse",
	Short: "threadpulse - reddit engagement automation with an action ledger",
	Long: `threadpulse rotates through configured subreddits, upvotes and
comments on fresh threads with human-like pacing, and records every
attempted action in an append-only sqlite ledger.

The serve command exposes the ledger read-only for dashboards.`,
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
		logger = logger.With(zap.String("run_id", uuid.NewString()))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// runCmd performs a single rotation
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single engagement rotation and exit",
	Long: `Launches a browser session, logs in when credentials are set,
visits every configured community once in random order, and engages at
most one thread per community.`,
	RunE: runOnce,
}

// loopCmd runs rotations continuously
var loopCmd = &cobra.Command{
	Use:   "loop",
	Short: "Run rotations continuously on the configured schedule",
	Long: `Repeats rotations with randomized gaps between them and an
extended break after every few rounds. Each rotation gets a fresh
browser session. Stop with SIGINT or SIGTERM.`,
	RunE: runLoop,
}

// serveCmd serves the dashboard query API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the read-only metrics and comments API",
	Long: `Opens the action ledger read-only and serves the dashboard
endpoints: /metrics (aggregated counts), /comments (recent comment
records), /healthz and /prometheus.`,
	RunE: serve,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "threadpulse.yaml", "Config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(loopCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// signalContext returns a context cancelled by SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()
	return ctx, cancel
}

// buildRunner assembles the orchestrator from config. The caller owns
// the returned ledger store.
func buildRunner(ctx context.Context, cfg *config.Config) (*orchestrator.Runner, *ledger.Store, error) {
	store, err := ledger.Open(cfg.DatabasePath)
	if err != nil {
		return nil, nil, err
	}

	gen, err := generator.New(ctx, generator.Config{
		Provider: cfg.Generator.Provider,
		Model:    cfg.Generator.Model,
		APIKey:   cfg.Generator.APIKey,
	})
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	runner := &orchestrator.Runner{
		Ledger:    store,
		Generator: gen,
		Pacer:     pacing.NewHuman(nil, nil),
		Rand:      rand.New(rand.NewSource(time.Now().UnixNano())),
		Log:       logger,
		BaseURL:   cfg.BaseURL,
		Credentials: reddit.Credentials{
			Username: cfg.Reddit.Username,
			Password: cfg.Reddit.Password,
		},
		MaxCandidates: cfg.Reddit.MaxCandidates,
	}
	return runner, store, nil
}

func sessionConfig(cfg *config.Config) page.SessionConfig {
	return page.SessionConfig{
		Headless:            cfg.Browser.Headless,
		ViewportWidth:       cfg.Browser.ViewportWidth,
		ViewportHeight:      cfg.Browser.ViewportHeight,
		NavigationTimeoutMs: int(cfg.GetNavigationTimeout() / time.Millisecond),
	}
}

func runOnce(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	runner, store, err := buildRunner(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	session, err := page.NewSession(ctx, sessionConfig(cfg), logger)
	if err != nil {
		return fmt.Errorf("start browser session: %w", err)
	}
	defer session.Close()

	logger.Info("starting single rotation",
		zap.Strings("communities", cfg.Communities),
		zap.String("database", store.Path()))
	return runner.RunOnce(ctx, session.Page(), cfg.Communities)
}

func runLoop(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	runner, store, err := buildRunner(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	minRot, maxRot, brk, minPause, maxPause := cfg.ScheduleDurations()
	sched := orchestrator.Schedule{
		MinRotation:      minRot,
		MaxRotation:      maxRot,
		BreakAfterRounds: cfg.Schedule.BreakAfterRounds,
		BreakDuration:    brk,
		MinRunPause:      minPause,
		MaxRunPause:      maxPause,
	}

	// A fresh browser per rotation: a wedged session never outlives its
	// round.
	factory := func(ctx context.Context) (page.Page, func(), error) {
		session, err := page.NewSession(ctx, sessionConfig(cfg), logger)
		if err != nil {
			return nil, nil, err
		}
		return session.Page(), func() { _ = session.Close() }, nil
	}

	logger.Info("starting rotation loop",
		zap.Strings("communities", cfg.Communities),
		zap.Int("break_after_rounds", sched.BreakAfterRounds))
	err = runner.Loop(ctx, factory, cfg.Communities, sched)
	if err == context.Canceled {
		logger.Info("loop stopped")
		return nil
	}
	return err
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	store, err := ledger.OpenReadOnly(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	server, err := api.NewServer(store, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	srv := &http.Server{
		Addr:    cfg.API.ListenAddr,
		Handler: server.Router(),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("serving dashboard API",
		zap.String("addr", cfg.API.ListenAddr),
		zap.String("database", store.Path()))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
