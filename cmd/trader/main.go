package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/TroExol/LDmarket/config"
	"github.com/TroExol/LDmarket/internal/adapters/lootdog"
	"github.com/TroExol/LDmarket/internal/adapters/notify"
	"github.com/TroExol/LDmarket/internal/adapters/storage"
	"github.com/TroExol/LDmarket/internal/engine"
	"github.com/TroExol/LDmarket/internal/ports"
	"github.com/TroExol/LDmarket/internal/pricing"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	dryRun := flag.Bool("dry-run", false, "evaluate and log decisions without trading")
	verbose := flag.Bool("verbose", false, "set log level to debug and print rejected candidates")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	if cfg.API.Cookie == "" || cfg.API.CSRFToken == "" {
		slog.Error("missing credentials: set LOOTDOG_COOKIE and LOOTDOG_CSRF_TOKEN")
		os.Exit(1)
	}

	slog.Info("ldmarket trader starting",
		"config", *configPath,
		"create_interval", cfg.CreateInterval(),
		"reprice_interval", cfg.RepriceInterval(),
		"dry_run", *dryRun,
	)

	settings, err := config.NewWatcher(*configPath, cfg.ReloadInterval(), slog.Default())
	if err != nil {
		slog.Error("failed to start settings watcher", "err", err)
		os.Exit(1)
	}

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	client := lootdog.NewClient(cfg.API.BaseURL, cfg.API.Cookie, cfg.API.CSRFToken)
	cache := pricing.NewCache(client)
	estimator := pricing.NewEstimator(cache)
	gate := engine.NewGate(settings, cache, estimator, client, store, slog.Default())

	var notifier ports.Notifier = notify.NewConsole(*verbose)
	if cfg.Pushover.Token != "" && cfg.Pushover.User != "" {
		notifier = notify.NewMulti(notifier, notify.NewPushover(cfg.Pushover.Token, cfg.Pushover.User))
		slog.Info("pushover notifications enabled")
	}

	feed := lootdog.NewFeed(cfg.API.WSURL, cfg.API.WSToken, slog.Default())

	eng := engine.New(gate, client, client, cache, feed, client, store, notifier, settings, slog.Default(), engine.Options{
		CreateInterval:   cfg.CreateInterval(),
		RepriceInterval:  cfg.RepriceInterval(),
		BookkeepInterval: cfg.BookkeepInterval(),
		DryRun:           *dryRun,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go settings.Run(ctx)

	if err := eng.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("trader exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("ldmarket trader stopped cleanly")
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
