package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/joho/godotenv"

	"github.com/consolerelay/consolerelay/server/internal/config"
	"github.com/consolerelay/consolerelay/server/internal/watch"
	"github.com/consolerelay/consolerelay/server/relay"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// .env is optional; variables already set in the environment win.
	_ = godotenv.Load()
	setupLogger(os.Getenv("LOG_LEVEL"))

	slog.Info("console-relay starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	if os.Getenv("LOG_LEVEL") == "" {
		setupLogger(cfg.Log.Level)
	}

	slog.Info("config loaded",
		"asset_port", cfg.Relay.AssetPort,
		"messaging_port", cfg.Relay.MessagingPort,
		"entry_points", cfg.Build.EntryPoints,
		"watch", cfg.Build.Watch,
		"alert_rules", len(cfg.Alerts.Rules),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	plugin := relay.New(cfg.Relay, relay.WithAlerts(cfg.Alerts))
	if err := plugin.Start(ctx); err != nil {
		slog.Error("failed to start relay", "err", err)
		os.Exit(1)
	}

	if len(cfg.Build.EntryPoints) == 0 {
		slog.Info("no build.entry_points configured, serving relay only")
	} else {
		bctx, cerr := api.Context(buildOptions(cfg.Build, plugin.ESBuild()))
		if cerr != nil {
			slog.Error("failed to create esbuild context", "errors", messageTexts(cerr.Errors))
			shutdown(plugin)
			os.Exit(1)
		}
		defer bctx.Dispose()

		rebuild := func() {
			start := time.Now()
			res := bctx.Rebuild()
			slog.Info("build finished",
				"warnings", len(res.Warnings),
				"errors", len(res.Errors),
				"outputs", len(res.OutputFiles),
				"took", time.Since(start),
			)
		}
		rebuild()

		if len(cfg.Build.Watch) > 0 {
			go func() {
				err := watch.Watch(ctx, cfg.Build.Watch, cfg.Build.Debounce, rebuild, outputDir(cfg.Build))
				if err != nil {
					slog.Error("source watcher stopped", "err", err)
				}
			}()
		}
	}

	<-ctx.Done()
	slog.Info("console-relay shutting down")
	shutdown(plugin)
}

func shutdown(p *relay.Plugin) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Close(ctx); err != nil {
		slog.Error("relay shutdown", "err", err)
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
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: l})))
}
