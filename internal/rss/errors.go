package rss

import (
	"errors"
	"fmt"
)

// Fatal failures of the feed pipeline.
var (
	ErrInvalidURL       = errors.New("invalid feed URL")
	ErrOriginNotAllowed = errors.New("feed URL origin not allowed")
	ErrNetwork          = errors.New("network error while fetching feed")
	ErrResponseTooLarge = errors.New("feed response exceeds size limit")
	ErrMalformedXML     = errors.New("malformed feed XML")
	ErrMissingChannel   = errors.New("missing <channel> element in feed")
)

var (
	errNoAllowedOrigins   = errors.New("allow-list is empty")
	errRedirectNotAllowed = errors.New("redirect target not allowed")
)

// HTTPError is returned when the feed server answers with a non-2xx status.
type HTTPError struct {
	StatusCode int
	Status     string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("failed to fetch feed: HTTP %d %s", e.StatusCode, e.Status)
}
