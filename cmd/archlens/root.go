package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"archlens/internal/cache"
	"archlens/internal/config"
	"archlens/internal/orchestrator"
	"archlens/internal/semantic"
	"archlens/internal/slogutil"
	"archlens/internal/source"
	"archlens/internal/structural"
	"archlens/internal/surface"
	"archlens/internal/telemetry"
	"archlens/internal/version"
)

var (
	configPath string
	verbosity  int
	quiet      bool
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "archlens",
	Short: "archlens - repository architecture analysis for agents",
	Long: `archlens analyzes a repository's architecture in layers (surface scan,
structural extraction, optional semantic analysis) and answers with a compact
summary plus sections that can be expanded on demand.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("archlens version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: .archlens/config.{json,yaml,toml} in the working directory)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress all logs")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format (human, json); overrides the config")
}

// loadConfig reads the configuration for the working directory.
func loadConfig() (*config.LoadResult, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}
	return config.LoadConfigWithDetails(wd, configPath)
}

// newLogger builds the stderr logger. Verbosity flags win over the configured level.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slogutil.LevelFromString(cfg.Logging.Level)
	if verbosity > 0 || quiet {
		level = slogutil.LevelFromVerbosity(verbosity, quiet)
	}
	format := cfg.Logging.Format
	if logFormat != "" {
		format = logFormat
	}

	if cfg.Logging.File != "" {
		logger, _, err := slogutil.NewFileLogger(cfg.Logging.File, format, level)
		if err == nil {
			return logger
		}
		fmt.Fprintf(os.Stderr, "Warning: cannot open log file %s: %v\n", cfg.Logging.File, err)
	}
	return slogutil.New(os.Stderr, format, level)
}

// newContext returns a context canceled on SIGINT or SIGTERM.
func newContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// newOrchestrator wires the pipeline from the configuration.
func newOrchestrator(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *telemetry.Metrics) (*orchestrator.Orchestrator, error) {
	client, err := semantic.NewClientFromConfig(ctx, cfg.Semantic, logger)
	if err != nil {
		return nil, err
	}

	cacheOpts := cache.OptionsFromConfig(cfg.Cache)
	if metrics != nil {
		cacheOpts.Observer = metrics
	}

	return orchestrator.New(orchestrator.Deps{
		Resolver:  source.NewResolver(cfg.Source, logger),
		Scanner:   surface.NewScanner(logger),
		Extractor: structural.NewExtractor(logger),
		Semantic:  semantic.NewAnalyzer(client, logger),
		Cache:     cache.New(cacheOpts),
		Metrics:   metrics,
		Logger:    logger,
	}, orchestrator.OptionsFromConfig(cfg)), nil
}
