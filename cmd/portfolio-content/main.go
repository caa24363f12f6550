// Command portfolio-content serves the editable content and syndicated
// sections of a portfolio site: about, experience, projects from an article
// feed, and certifications from a badge provider.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/lmittmann/tint"

	"github.com/jfernandes/portfolio-content/server"
	"github.com/jfernandes/portfolio-content/telemetry"
)

var version = "dev"

// secrets holds the configuration that must never travel through argv.
type secrets struct {
	AdminToken    string `env:"ADMIN_TOKEN"`
	CronSecret    string `env:"CRON_SECRET"`
	BadgeIdentity string `env:"BADGE_IDENTITY"`
	FeedURL       string `env:"FEED_URL"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		address      = flag.String("address", ":8080", "Address to listen on")
		dataDir      = flag.String("data-dir", "./data", "Data directory path")
		badgeBase    = flag.String("badge-base-url", "", "Badge provider base URL (default: www.credly.com)")
		badgeTTL     = flag.Duration("badge-ttl", time.Hour, "How long a fetched badge batch stays fresh")
		badgeRules   = flag.String("badge-rules", "", "YAML file overriding the built-in badge classification rules")
		syncSchedule = flag.String("sync-schedule", "", "Cron expression for the internal refresh job (empty disables)")
		metricsOn    = flag.Bool("metrics", false, "Expose Prometheus metrics on /metrics")
		logLevel     = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		logFormat    = flag.String("log-format", "text", "Log format (text, json)")
	)
	flag.Parse()

	var sec secrets
	if err := env.Parse(&sec); err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}

	logger, err := buildLogger(*logLevel, *logFormat)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownMetrics, err := telemetry.InitMetrics(ctx, telemetry.MetricsConfig{
		ServiceName:      "portfolio-content",
		ServiceVersion:   version,
		EnablePrometheus: *metricsOn,
	})
	if err != nil {
		return fmt.Errorf("initializing metrics: %w", err)
	}

	cfg := server.Config{
		Address:        *address,
		DataDir:        *dataDir,
		BadgeIdentity:  sec.BadgeIdentity,
		BadgeBaseURL:   *badgeBase,
		BadgeTTL:       *badgeTTL,
		BadgeRulesPath: *badgeRules,
		FeedURL:        sec.FeedURL,
		AdminToken:     sec.AdminToken,
		CronSecret:     sec.CronSecret,
		SyncSchedule:   *syncSchedule,
		Logger:         logger,
	}

	srv, err := server.New(cfg)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- err
		}
	}()

	logger.Info("server started",
		"version", version,
		"address", srv.Address(),
		"data_dir", *dataDir,
		"badge_identity", sec.BadgeIdentity,
		"sync_schedule", *syncSchedule,
	)

	select {
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return shutdownMetrics(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func buildLogger(level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	switch format {
	case "text":
		return slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: lvl})), nil
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})), nil
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}
}
