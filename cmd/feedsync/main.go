package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"feedsync/internal/cache"
	"feedsync/internal/catalog"
	"feedsync/internal/config"
	"feedsync/internal/fsguard"
	"feedsync/internal/logger"
	"feedsync/internal/rss"
	"feedsync/internal/service"
	"feedsync/internal/storage"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, stdout io.Writer) int {
	fs := pflag.NewFlagSet("feedsync", pflag.ContinueOnError)
	configPath := fs.String("config", "", "path to a YAML config file")
	feedURL := fs.String("feed-url", "", "feed URL, overrides config")
	cachePath := fs.String("cache", "", "feed cache path, overrides config")
	catalogPath := fs.String("catalog", "", "catalog path, overrides config")
	logLevel := fs.String("log-level", "", "debug, info, warn or error")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.New("feedsync", "info").Error("failed to load config", logger.SafeErr(err))
		return 1
	}
	if *feedURL != "" {
		cfg.FeedURL = *feedURL
	}
	if *cachePath != "" {
		cfg.CachePath = *cachePath
	}
	if *catalogPath != "" {
		cfg.CatalogPath = *catalogPath
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	log := logger.New("feedsync", cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Error("invalid flags", logger.SafeErr(err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, closeFn, err := build(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize", logger.SafeErr(err))
		return 1
	}
	defer closeFn()

	res, err := svc.Run(ctx)
	if err != nil {
		log.Error("feed sync failed", slog.String("run_id", res.RunID), logger.SafeErr(err))
		return 1
	}

	fmt.Fprintf(stdout, "has_changes=%t\n", res.HasChanges)
	if res.HasChanges {
		fmt.Fprintf(stdout, "catalog_path=%s\n", logger.Sanitize(res.CatalogPath))
		fmt.Fprintf(stdout, "cache_path=%s\n", logger.Sanitize(res.CachePath))
	}
	return 0
}

func build(ctx context.Context, cfg config.Config, log *slog.Logger) (*service.Service, func(), error) {
	root, err := fsguard.NewRoot(cfg.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("data dir: %w", err)
	}
	allow, err := rss.NewAllowList(cfg.AllowedOrigins)
	if err != nil {
		return nil, nil, fmt.Errorf("allowed origins: %w", err)
	}

	fetcher := rss.NewFetcher(rss.FetcherOptions{
		AllowList: allow,
		Timeout:   cfg.FetchTimeout,
		MaxBytes:  cfg.MaxFeedBytes,
		UserAgent: cfg.UserAgent,
	}, log)
	norm := rss.NewNormalizer(cfg.ArticlePrefix, log)

	closeFn := func() {}
	var mirror service.Mirror
	if cfg.MySQL.Enabled() {
		store, err := storage.NewMySQLStore(ctx, cfg.MySQL, log)
		if err != nil {
			return nil, nil, fmt.Errorf("init mysql store: %w", err)
		}
		mirror = store
		closeFn = func() { _ = store.Close() }
	}

	svc := service.NewService(fetcher, norm, cache.NewStore(root, log), catalog.NewStore(root, log), mirror, log, cfg)
	return svc, closeFn, nil
}
