package rss

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"feedsync/internal/logger"
)

const defaultMaxBytes = 5 << 20

// AllowList holds the HTTPS URL prefixes a feed may be fetched from.
type AllowList struct {
	prefixes []*url.URL
}

// NewAllowList parses each prefix. Every prefix must be an absolute https URL.
func NewAllowList(prefixes []string) (AllowList, error) {
	if len(prefixes) == 0 {
		return AllowList{}, errNoAllowedOrigins
	}
	out := make([]*url.URL, 0, len(prefixes))
	for _, raw := range prefixes {
		u, err := url.Parse(strings.TrimSpace(raw))
		if err != nil || u.Scheme != "https" || u.Host == "" {
			return AllowList{}, fmt.Errorf("allowed origin %q must be an absolute https URL", raw)
		}
		if u.Path == "" {
			u.Path = "/"
		}
		out = append(out, u)
	}
	return AllowList{prefixes: out}, nil
}

// Allows reports whether u is https, carries no credentials, has no dot
// segments, and matches the host and path prefix of some entry.
func (a AllowList) Allows(u *url.URL) bool {
	if u == nil || u.Scheme != "https" || u.User != nil || hasDotSegment(u.Path) {
		return false
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	for _, p := range a.prefixes {
		if strings.EqualFold(u.Host, p.Host) && strings.HasPrefix(path, p.Path) {
			return true
		}
	}
	return false
}

// hasDotSegment reports whether the decoded path has a "." or ".." segment.
// The server resolves those after the prefix check.
func hasDotSegment(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		if seg == "." || seg == ".." {
			return true
		}
	}
	return false
}

// FetcherOptions configures a Fetcher. Zero values pick defaults.
type FetcherOptions struct {
	AllowList AllowList
	Timeout   time.Duration
	MaxBytes  int64
	UserAgent string

	// Client overrides the HTTP client. Its CheckRedirect is replaced.
	Client *http.Client
}

// Fetcher retrieves raw feed documents from allow-listed origins.
type Fetcher struct {
	allow     AllowList
	client    *http.Client
	maxBytes  int64
	userAgent string
	logger    *slog.Logger
}

// NewFetcher creates a Fetcher. Redirects are followed only to allow-listed
// targets.
func NewFetcher(opts FetcherOptions, log *slog.Logger) *Fetcher {
	client := &http.Client{}
	if opts.Client != nil {
		c := *opts.Client
		client = &c
	}
	if opts.Timeout > 0 {
		client.Timeout = opts.Timeout
	}
	f := &Fetcher{
		allow:     opts.AllowList,
		client:    client,
		maxBytes:  opts.MaxBytes,
		userAgent: opts.UserAgent,
		logger:    log,
	}
	if f.maxBytes <= 0 {
		f.maxBytes = defaultMaxBytes
	}
	if f.userAgent == "" {
		f.userAgent = "feedsync/1.0"
	}
	client.CheckRedirect = f.checkRedirect
	return f
}

// Validate checks feedURL against the allow-list without any network I/O.
func (f *Fetcher) Validate(feedURL string) (*url.URL, error) {
	u, err := url.Parse(feedURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("%w: %s", ErrInvalidURL, logger.Sanitize(feedURL))
	}
	if !f.allow.Allows(u) {
		return nil, fmt.Errorf("%w: %s", ErrOriginNotAllowed, logger.Sanitize(u.Redacted()))
	}
	return u, nil
}

// FetchRaw issues a single GET for feedURL and returns the body unmodified.
// There is no retry here.
func (f *Fetcher) FetchRaw(ctx context.Context, feedURL string) (string, error) {
	u, err := f.Validate(feedURL)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/xml, text/xml;q=0.9, */*;q=0.1")

	f.logger.Debug("fetching feed", logger.SafeString("url", u.Redacted()))
	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, errRedirectNotAllowed) {
			return "", fmt.Errorf("%w: %w", ErrOriginNotAllowed, err)
		}
		return "", fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", &HTTPError{StatusCode: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("%w: read body: %w", ErrNetwork, err)
	}
	if int64(len(body)) > f.maxBytes {
		return "", fmt.Errorf("%w: more than %d bytes", ErrResponseTooLarge, f.maxBytes)
	}

	f.logger.Info("fetched feed",
		logger.SafeString("url", u.Redacted()),
		slog.Int("bytes", len(body)),
	)
	return string(body), nil
}

func (f *Fetcher) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= 10 {
		return errors.New("stopped after 10 redirects")
	}
	if !f.allow.Allows(req.URL) {
		return fmt.Errorf("%w: %s", errRedirectNotAllowed, logger.Sanitize(req.URL.Redacted()))
	}
	return nil
}
