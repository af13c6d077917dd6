// Package service runs the feed ingestion pipeline once.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"feedsync/internal/catalog"
	"feedsync/internal/config"
	"feedsync/internal/logger"
	"feedsync/internal/rss"
)

type rawFetcher interface {
	FetchRaw(ctx context.Context, feedURL string) (string, error)
}

type normalizer interface {
	Normalize(raw string) ([]rss.Article, []rss.Skip, error)
}

type snapshotStore interface {
	Load(path string) (string, bool, error)
	Save(path, content string) error
}

type catalogStore interface {
	Load(path string) ([]catalog.Entry, error)
	Save(path string, entries []catalog.Entry) error
}

// Mirror receives the full catalog after every successful write.
type Mirror interface {
	SyncCatalog(ctx context.Context, entries []catalog.Entry) error
}

// Result is what the orchestration layer acts on.
type Result struct {
	RunID       string
	HasChanges  bool
	NewURLs     []string
	Skipped     int
	CatalogPath string
	CachePath   string
	Catalog     []catalog.Entry
}

// Service ties together retrieval, normalization, diffing and the catalog.
//
// A Service assumes it is the only run working on its cache and catalog
// files. Two concurrent runs against the same data directory race, and the
// last writer wins on both files.
type Service struct {
	fetcher    rawFetcher
	normalizer normalizer
	cache      snapshotStore
	catalog    catalogStore
	mirror     Mirror
	logger     *slog.Logger
	cfg        config.Config
}

// NewService creates a Service instance. mirror may be nil.
func NewService(fetcher rawFetcher, norm normalizer, cache snapshotStore, cat catalogStore, mirror Mirror, logger *slog.Logger, cfg config.Config) *Service {
	return &Service{
		fetcher:    fetcher,
		normalizer: norm,
		cache:      cache,
		catalog:    cat,
		mirror:     mirror,
		logger:     logger,
		cfg:        cfg,
	}
}

// Run fetches the feed once and, when it holds links the cached snapshot
// does not, merges them into the catalog and then replaces the snapshot.
// The snapshot is written last so that a failure anywhere earlier leaves it
// untouched and the next run sees the same diff.
func (s *Service) Run(ctx context.Context) (Result, error) {
	runID := uuid.NewString()
	log := s.logger.With(slog.String("run_id", runID))
	res := Result{RunID: runID, CatalogPath: s.cfg.CatalogPath, CachePath: s.cfg.CachePath}

	raw, err := s.fetcher.FetchRaw(ctx, s.cfg.FeedURL)
	if err != nil {
		return res, fmt.Errorf("fetch feed: %w", err)
	}

	articles, skips, err := s.normalizer.Normalize(raw)
	if err != nil {
		return res, fmt.Errorf("normalize feed: %w", err)
	}
	res.Skipped = len(skips)
	log.Info("normalized feed", slog.Int("articles", len(articles)), slog.Int("skipped", len(skips)))

	previous, ok, err := s.cache.Load(s.cfg.CachePath)
	if err != nil {
		return res, fmt.Errorf("load feed cache: %w", err)
	}
	if !ok {
		log.Info("no previous feed cache, every link counts as new")
	}

	diff := rss.DetectDiff(raw, previous)
	res.NewURLs = diff.NewURLs
	if !diff.HasChanges {
		log.Info("no new articles")
		return res, nil
	}
	res.HasChanges = true
	log.Info("detected new articles", slog.Int("count", len(diff.NewURLs)))

	incoming := buildEntries(diff.NewURLs, articles, s.cfg.ArticlePrefix, log)

	existing, err := s.catalog.Load(s.cfg.CatalogPath)
	if err != nil {
		return res, fmt.Errorf("load catalog: %w", err)
	}
	merged := catalog.MergeAndSort(existing, incoming)
	if err := s.catalog.Save(s.cfg.CatalogPath, merged); err != nil {
		return res, fmt.Errorf("save catalog: %w", err)
	}
	res.Catalog = merged
	log.Info("catalog updated",
		logger.SafeString("path", s.cfg.CatalogPath),
		slog.Int("entries", len(merged)),
	)

	if err := s.cache.Save(s.cfg.CachePath, raw); err != nil {
		return res, fmt.Errorf("save feed cache: %w", err)
	}
	log.Info("feed cache updated", logger.SafeString("path", s.cfg.CachePath))

	if s.mirror != nil {
		if err := s.mirror.SyncCatalog(ctx, merged); err != nil {
			log.Warn("catalog mirror sync failed", logger.SafeErr(err))
		}
	}
	return res, nil
}

// buildEntries pairs each new URL with its normalized article. A URL the
// normalizer dropped still gets an undated entry with an id taken from the
// URL, as long as it is under the article prefix; anything else is left out.
func buildEntries(newURLs []string, articles []rss.Article, prefix string, log *slog.Logger) []catalog.Entry {
	byURL := make(map[string]rss.Article, len(articles))
	for _, a := range articles {
		byURL[a.ExternalURL] = a
	}

	entries := make([]catalog.Entry, 0, len(newURLs))
	for _, u := range newURLs {
		if a, ok := byURL[u]; ok {
			entries = append(entries, catalog.Entry{ID: a.ID, ExternalURL: u, PublishedAt: a.PublishedAt})
			continue
		}
		if !strings.HasPrefix(u, prefix) {
			log.Warn("new link outside article prefix, not cataloged", logger.SafeString("url", u))
			continue
		}
		log.Warn("new link has no normalized article, adding undated entry", logger.SafeString("url", u))
		entries = append(entries, catalog.Entry{ID: rss.ExtractIDFromURL(u), ExternalURL: u})
	}
	return entries
}
