package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/consolerelay/consolerelay/agent/internal/compute"
	"github.com/consolerelay/consolerelay/agent/internal/config"
	"github.com/consolerelay/consolerelay/agent/internal/printer"
	"github.com/consolerelay/consolerelay/agent/internal/scraper"
	"github.com/consolerelay/consolerelay/agent/internal/subscriber"
)

func main() {
	configPath := flag.String("config", "", "path to config file; empty uses defaults")
	flag.Parse()

	// .env is optional; variables already set in the environment win.
	_ = godotenv.Load()
	setupLogger(os.Getenv("LOG_LEVEL"))

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			slog.Error("failed to load config", "err", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if os.Getenv("LOG_LEVEL") == "" {
		setupLogger(cfg.Log.Level)
	}

	slog.Info("console-relay agent starting",
		"relay_url", cfg.Agent.RelayURL,
		"status_interval", cfg.Agent.Status.Interval,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Diagnostics go to stdout, logs to stderr.
	out := printer.New(os.Stdout, cfg.Agent.Output)

	if *configPath != "" {
		go func() {
			if err := config.Watch(ctx, *configPath, func(updated *config.Config) {
				out.SetOutput(updated.Agent.Output)
				slog.Info("output settings reloaded", "kinds", updated.Agent.Output.Kinds)
			}); err != nil {
				slog.Error("config watcher stopped", "err", err)
			}
		}()
	}

	if cfg.Agent.Status.Interval > 0 {
		go pollStatus(ctx, cfg.Agent.Status, out)
	}

	subscriber.New(cfg.Agent, out).Run(ctx)
	slog.Info("console-relay agent shutting down")
}

// pollStatus scrapes the relay's metrics every interval and prints its health.
func pollStatus(ctx context.Context, cfg config.StatusConfig, out *printer.Printer) {
	s := scraper.New(cfg.MetricsURL)
	engine := compute.NewEngine()
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			res, err := s.Scrape(ctx)
			if err != nil {
				slog.Warn("status scrape error", "err", err)
				continue
			}
			out.Status(engine.Process(res, t))
		}
	}
}

func setupLogger(level string) {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
}
