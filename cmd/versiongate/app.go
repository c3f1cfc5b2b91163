package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/evn/versiongate/config"
	"github.com/evn/versiongate/internal/appversion"
	"github.com/evn/versiongate/internal/catalog"
	"github.com/evn/versiongate/internal/metrics"
	"github.com/evn/versiongate/internal/store"
)

// app is the wiring shared by every command.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     store.Backend
	metrics   *metrics.Metrics
	engine    *appversion.Engine
	refresher *appversion.Refresher
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg)

	minimums, err := cfg.AppVersion.MinimumTable()
	if err != nil {
		return nil, err
	}
	backend, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}

	if cfg.AppVersion.IOSAppID == "" {
		logger.Warn("IOS_APP_ID is not set, catalog refreshes will fail")
	}
	m := metrics.New()
	fetcher := catalog.NewClient(catalog.Options{
		LookupURL: cfg.AppVersion.ITunesLookupURL,
		AppID:     cfg.AppVersion.IOSAppID,
		Country:   cfg.AppVersion.ITunesCountry,
		Timeout:   cfg.AppVersion.CatalogTimeout,
	})

	return &app{
		cfg:       cfg,
		logger:    logger,
		store:     backend,
		metrics:   m,
		engine:    appversion.NewEngine(minimums, cfg.AppVersion.UpdateURLs()),
		refresher: appversion.NewRefresher(fetcher, backend, cfg.AppVersion.CacheKey, logger, m),
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("close store", "error", err)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}
	var handler slog.Handler
	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	logger := slog.New(handler).With("service", "versiongate")
	slog.SetDefault(logger)
	return logger
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
