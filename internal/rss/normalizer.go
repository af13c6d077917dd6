package rss

import (
	"log/slog"
	"sort"
	"strings"

	"feedsync/internal/logger"
)

// Article is a feed item that passed validation.
type Article struct {
	ID          string
	ExternalURL string
	PublishedAt string // YYYY-MM-DD
}

// SkipReason says why an item was left out.
type SkipReason string

const (
	SkipMissingLink SkipReason = "missing-link"
	SkipPrefix      SkipReason = "prefix-not-allowed"
	SkipMissingDate SkipReason = "missing-date"
	SkipInvalidDate SkipReason = "invalid-date"
	SkipInvalidSlug SkipReason = "invalid-slug"
	SkipDuplicate   SkipReason = "duplicate-link"
	SkipIDCollision SkipReason = "id-collision"
)

// Skip describes one dropped item.
type Skip struct {
	Index  int
	Reason SkipReason
	Link   string
	Detail string
}

// Normalizer turns a raw RSS document into validated articles.
type Normalizer struct {
	prefix string
	logger *slog.Logger
}

// NewNormalizer creates a Normalizer that only accepts links starting with
// articlePrefix.
func NewNormalizer(articlePrefix string, log *slog.Logger) *Normalizer {
	return &Normalizer{prefix: articlePrefix, logger: log}
}

// Normalize parses raw and returns its articles newest first, ties broken by
// URL. Items that fail validation are dropped and returned as skips; only
// ErrMalformedXML and ErrMissingChannel abort.
func (n *Normalizer) Normalize(raw string) ([]Article, []Skip, error) {
	items, err := parseItems(raw)
	if err != nil {
		return nil, nil, err
	}

	ids := newIDAllocator()
	articles := make([]Article, 0, len(items))
	var skips []Skip

	for i, item := range items {
		a, skip := n.check(item)
		if skip == nil {
			articles, skip = ids.place(articles, a)
		}
		if skip != nil {
			skip.Index = i
			skips = append(skips, *skip)
			n.logger.Warn("skipping feed item",
				slog.Int("index", i),
				slog.String("reason", string(skip.Reason)),
				logger.SafeString("link", skip.Link),
				logger.SafeString("detail", skip.Detail),
			)
			continue
		}
		n.logger.Debug("accepted feed item",
			logger.SafeString("link", a.ExternalURL),
			slog.String("link_kind", item.linkKind.String()),
		)
	}

	sort.SliceStable(articles, func(i, j int) bool {
		if articles[i].PublishedAt != articles[j].PublishedAt {
			return articles[i].PublishedAt > articles[j].PublishedAt
		}
		return articles[i].ExternalURL < articles[j].ExternalURL
	})
	return articles, skips, nil
}

// check runs the per-item validations in order and returns the article with
// its plain slug as ID.
func (n *Normalizer) check(item feedItem) (Article, *Skip) {
	link := item.link
	if link == "" {
		return Article{}, &Skip{Reason: SkipMissingLink}
	}
	if !strings.HasPrefix(link, n.prefix) {
		return Article{}, &Skip{Reason: SkipPrefix, Link: link}
	}

	if item.pubDate == "" {
		return Article{}, &Skip{Reason: SkipMissingDate, Link: link}
	}
	published, err := formatPubDate(item.pubDate)
	if err != nil {
		return Article{}, &Skip{Reason: SkipInvalidDate, Link: link, Detail: item.pubDate}
	}
	if !datePattern.MatchString(published) {
		return Article{}, &Skip{Reason: SkipInvalidDate, Link: link, Detail: published}
	}

	id := ExtractIDFromURL(link)
	if !ValidSlug(id) {
		return Article{}, &Skip{Reason: SkipInvalidSlug, Link: link, Detail: id}
	}

	return Article{ID: id, ExternalURL: link, PublishedAt: published}, nil
}
