package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lamim/drillforge/internal/api"
	"github.com/lamim/drillforge/internal/config"
	"github.com/lamim/drillforge/internal/drill"
	"github.com/lamim/drillforge/internal/metrics"
	"github.com/lamim/drillforge/internal/practice"
	"github.com/lamim/drillforge/internal/settings"
	"github.com/lamim/drillforge/internal/writer"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var (
	configPath  string
	envFile     string
	verbose     bool
	initConfig  bool
	profile     string
	mode        string
	metricsAddr string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "drillforge",
		Short: "DrillForge - flashcard practice client",
		Long: `DrillForge practices flashcard sets against an adaptive-practice backend.
It prefetches flashcards, submits answers in batches and records every set.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Practice one set",
		Long: `Practice one set of the configured profile:
1. Load the local and (optionally) the remote configuration
2. Fetch flashcards ahead of time
3. Answer them automatically or interactively
4. Submit the answers and record the set in the session directory`,
		RunE: runPractice,
	}

	runCmd.Flags().StringVar(&configPath, "config", "config.toml", "Path to configuration file")
	runCmd.Flags().StringVar(&envFile, "env-file", ".env", "Path to environment file")
	runCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	runCmd.Flags().BoolVar(&initConfig, "init", false, "Write an example configuration to --config and exit")
	runCmd.Flags().StringVar(&profile, "profile", "", "Practice profile (overrides practice.profile)")
	runCmd.Flags().StringVar(&mode, "mode", "", "Drill mode: auto or interactive (overrides drill.mode)")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newJournalCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadEnv() {
	if envFile == "" {
		return
	}
	if err := godotenv.Load(envFile); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load env file: %v\n", err)
		}
	} else if verbose {
		fmt.Fprintf(os.Stderr, "Loaded env file: %s\n", envFile)
	}
}

func writeExampleConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := os.WriteFile(path, []byte(config.GetExampleConfig()), 0644); err != nil {
		return fmt.Errorf("failed to write example config: %w", err)
	}
	fmt.Printf("Wrote example configuration to %s\n", path)
	return nil
}

func runPractice(cmd *cobra.Command, args []string) error {
	if initConfig {
		return writeExampleConfig(configPath)
	}

	loadEnv()

	cfg, secrets, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if profile != "" {
		cfg.Practice.Profile = profile
	}
	if mode != "" {
		cfg.Drill.Mode = mode
	}
	if metricsAddr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if verbose && secrets.SessionCookie != "" {
		fmt.Fprintf(os.Stderr, "Loaded session cookie (length: %d)\n", len(secrets.SessionCookie))
	}

	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	sessionMgr, err := writer.NewSessionManager(cfg.Output.Dir, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	logger, logFile, err := writer.SetupLogger(sessionMgr, logLevel)
	if err != nil {
		return fmt.Errorf("failed to setup logger: %w", err)
	}
	defer func() {
		if logFile != nil {
			_ = logFile.Sync()
			_ = logFile.Close()
		}
	}()

	logger.Info("DrillForge starting",
		"version", Version,
		"config", configPath,
		"profile", cfg.Practice.Profile,
		"mode", cfg.Drill.Mode,
		"session_dir", sessionMgr.GetSessionDir())

	if err := sessionMgr.BackupConfig(configPath); err != nil {
		return fmt.Errorf("failed to backup config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := api.NewClient(cfg.Server, logger)
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}

	collector := metrics.NewCollector(logger)
	client.SetObserver(collector)
	if cfg.Metrics.Enabled {
		go func() {
			if err := collector.Serve(ctx, cfg.Metrics.Addr); err != nil {
				logger.Error("Metrics server failed", "error", err)
			}
		}()
	}

	store, err := loadSettings(ctx, cfg, client, logger)
	if err != nil {
		return err
	}
	client.SetOverrides(store)

	mgr := practice.New(client, store, logger)
	mgr.SetRecorder(collector)
	defer mgr.Close()

	responder, err := drill.NewResponder(cfg.Drill, os.Stdin, os.Stdout)
	if err != nil {
		return err
	}

	runner := drill.New(cfg, mgr, responder, logger)
	runner.SetRecorder(collector)
	if cfg.Output.EnableJournal {
		runner.SetJournalDir(sessionMgr.GetSessionDir())
	}
	if cfg.Drill.Mode != "interactive" {
		runner.SetProgressOutput(os.Stderr)
	}

	if cfg.Output.WriteAnswers {
		answers, err := writer.NewAnswerWriter(sessionMgr, logger)
		if err != nil {
			return fmt.Errorf("failed to create answer writer: %w", err)
		}
		defer func() {
			if err := answers.Close(); err != nil {
				logger.Error("Failed to close answer writer", "error", err)
			}
		}()
		runner.SetAnswerWriter(answers)
	}

	res, err := runner.Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("Practice interrupted",
				"session_dir", filepath.Base(sessionMgr.GetSessionDir()),
				"answered", res.Stats.Answered,
				"inspect_command", fmt.Sprintf("drillforge journal inspect %s", filepath.Base(sessionMgr.GetSessionDir())))
			return fmt.Errorf("practice interrupted")
		}
		return fmt.Errorf("practice failed: %w", err)
	}

	if cfg.Output.ExportXLSX {
		if err := writer.ExportSummaryXLSX(sessionMgr.GetSummaryPath(), res.Journal); err != nil {
			return fmt.Errorf("failed to export summary: %w", err)
		}
		logger.Info("Summary exported", "path", sessionMgr.GetSummaryPath())
	}

	logger.Debug("Backend debug log", "events", len(client.DebugLog().Events()))
	printResult(os.Stdout, res)
	return nil
}

// loadSettings builds the settings store from the local profiles and, when
// enabled, the remote configuration, which wins on conflicts
func loadSettings(ctx context.Context, cfg *config.Config, client *api.Client, logger *slog.Logger) (*settings.Store, error) {
	store := settings.New(logger)
	if err := store.Merge(cfg.Practice.SettingsMap()); err != nil {
		return nil, err
	}

	if cfg.Server.LoadRemoteConfig {
		remote, err := client.LoadConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load remote configuration: %w", err)
		}
		if err := store.Merge(remote); err != nil {
			return nil, err
		}
		logger.Info("Remote configuration loaded", "path", cfg.Server.ConfigPath)
	}

	for key, value := range cfg.Practice.Overrides {
		store.Override(key, value)
	}
	if len(cfg.Practice.Overrides) > 0 {
		logger.Info("Configuration overrides set", "overrides", store.Overridden())
	}
	return store, nil
}

func printResult(w io.Writer, res *drill.Result) {
	s := res.Stats
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Set complete: %d flashcards, %d correct, %d don't know (%.1f%%)\n",
		s.Delivered, s.Correct, s.Skipped, s.Accuracy())
	fmt.Fprintf(w, "Duration: %s, average response: %s\n",
		s.TotalDuration.Round(time.Millisecond), s.AverageResponse.Round(time.Millisecond))
}
