package main

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"archlens/internal/mcp"
	"archlens/internal/telemetry"
	"archlens/internal/version"
)

var metricsAddr string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the analysis tools over MCP on stdio",
	Long: `Start an MCP server on stdin/stdout exposing analyze_repository,
expand_section, read_files, query_analysis and list_analyses.

Analyses stay cached in the server process, so sections can be expanded and
files read without re-running the pipeline. Logs go to stderr.

Examples:
  archlens mcp
  archlens mcp --metrics-addr 127.0.0.1:9464`,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (default from config when metrics are enabled)")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	loaded, err := loadConfig()
	if err != nil {
		return err
	}
	cfg := loaded.Config
	logger := newLogger(cfg)

	ctx, cancel := newContext()
	defer cancel()

	metrics := telemetry.New(nil)
	addr := metricsAddr
	if addr == "" && cfg.Metrics.Enabled {
		addr = cfg.Metrics.Addr
	}
	if addr != "" {
		srv := serveMetrics(addr, metrics, logger)
		defer srv.Close()
	}

	orch, err := newOrchestrator(ctx, cfg, logger, metrics)
	if err != nil {
		return err
	}
	defer orch.Cache().Clear()

	logger.Info("Starting MCP server",
		"version", version.Version,
		"configPath", loaded.ConfigPath,
		"metricsAddr", addr,
	)
	return mcp.NewServer(version.Version, orch, logger).ServeStdio()
}

func serveMetrics(addr string, metrics *telemetry.Metrics, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server stopped", "addr", addr, "error", err.Error())
		}
	}()
	return srv
}
