// Package main is the CLI entry point for admute.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/eliteGoblin/focusd/ad_mute/internal/config"
	"github.com/eliteGoblin/focusd/ad_mute/internal/daemon"
	"github.com/eliteGoblin/focusd/ad_mute/internal/infra"
	"github.com/eliteGoblin/focusd/ad_mute/internal/policy"
)

var (
	// Version info (set via ldflags)
	Version   = "0.1.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "admute",
	Short: "Mutes Spotify while it plays advertisements",
	Long: `admute watches the Spotify desktop client and mutes it while an
advertisement is playing, restoring sound when music resumes.

Spotify is launched if it is not running. Nothing is written to disk.`,
	Version:      Version,
	SilenceUsage: true,
	RunE:         runAgent,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the agent in the foreground (default)",
	Long:  `Attaches to Spotify and mutes advertisements until interrupted.`,
	RunE:  runAgent,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Print the current track and whether it is an ad",
	Long: `Attaches to Spotify once, reads the current track identifier and
classifies it. Does not change the mute state.`,
	RunE: runCheck,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Prints version, commit, and build time. Use --json for machine-readable output.`,
	Run:   runVersion,
}

var (
	configPath   string
	logLevel     string
	logFile      string
	userFlag     string
	dataDirFlag  string
	settleFlag   time.Duration
	pollFlag     time.Duration
	correction   int64
	checkTimeout time.Duration
	jsonOutput   bool
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "YAML config file")
	pf.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.StringVar(&logFile, "log-file", "", "Write logs to this file instead of stderr")
	pf.StringVar(&userFlag, "user", "", "Only watch this Spotify account")
	pf.StringVar(&dataDirFlag, "data-dir", "", "Spotify Users directory (auto-detected by default)")
	pf.DurationVar(&settleFlag, "settle", 0, "Pause before unmuting after an ad")
	pf.DurationVar(&pollFlag, "poll", 0, "Also re-check on this interval (0 disables)")
	pf.Int64Var(&correction, "correction", 0, "Signature offset correction in bytes")

	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 30*time.Second, "Give up attaching after this long")
	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the config file and applies flags that were set explicitly.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("user") {
		cfg.User = userFlag
	}
	if flags.Changed("data-dir") {
		cfg.DataDir = dataDirFlag
	}
	if flags.Changed("settle") {
		cfg.SettleDelay = config.Duration(settleFlag)
	}
	if flags.Changed("poll") {
		cfg.PollInterval = config.Duration(pollFlag)
	}
	if flags.Changed("correction") {
		cfg.Signature.Correction = correction
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("log-file") {
		cfg.Log.File = logFile
	}
	return cfg, cfg.Validate()
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext(logger *zap.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			logger.Info("received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()
	return ctx, cancel
}

func runAgent(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := createLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("admute starting",
		zap.String("version", Version),
		zap.String("commit", Commit),
		zap.Bool("elevated", infra.IsElevated()))

	engine, cleanup, err := daemon.Bootstrap(cfg, logger)
	if err != nil {
		logger.Error("startup failed", zap.Error(err))
		return err
	}
	defer func() {
		if err := cleanup(); err != nil {
			logger.Warn("cleanup failed", zap.Error(err))
		}
	}()

	ctx, cancel := signalContext(logger)
	defer cancel()

	if err := engine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("engine stopped", zap.Error(err))
		return err
	}
	logger.Info("admute stopped", zap.Stringer("state", engine.State()))
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := createLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	target, err := daemon.BuildTarget(cfg)
	if err != nil {
		return err
	}
	player, err := daemon.BuildPlayer(cfg, target, infra.NewProcessManager(), logger)
	if err != nil {
		return err
	}
	defer func() { _ = player.Close() }()

	ctx, cancel := signalContext(logger)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, checkTimeout)
	defer cancelTimeout()

	if err := player.Attach(ctx); err != nil {
		return fmt.Errorf("attach to %s: %w", target.Name, err)
	}

	id, err := player.CurrentTrack(ctx)
	if err != nil {
		return fmt.Errorf("read current track: %w", err)
	}

	classifier := policy.NewClassifier(target.AdSentinel)
	fmt.Printf("pid:   %d\n", player.PID())
	fmt.Printf("track: %q\n", id)
	fmt.Printf("ad:    %t\n", classifier.IsAd(id))
	return nil
}

// createLogger builds a production logger with ISO8601 timestamps.
// Interactive terminals get the console encoder.
func createLogger(lc config.LogConfig) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	level, err := zapcore.ParseLevel(lc.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	if lc.File != "" {
		cfg.OutputPaths = []string{lc.File}
		cfg.ErrorOutputPaths = []string{lc.File}
	} else if term.IsTerminal(int(os.Stderr.Fd())) {
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	logger, err := cfg.Build()
	if err != nil {
		// Fallback to stderr if file logging fails
		logger, _ = zap.NewProduction()
		logger.Warn("falling back to stderr logging", zap.String("file", lc.File), zap.Error(err))
	}
	return logger, nil
}

func runVersion(cmd *cobra.Command, args []string) {
	if jsonOutput {
		fmt.Printf(`{"version":"%s","commit":"%s","build_time":"%s"}`+"\n",
			Version, Commit, BuildTime)
	} else {
		fmt.Printf("admute %s (commit: %s, built: %s)\n",
			Version, Commit, BuildTime)
	}
}
