package rss

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

var pubDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"02 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 -0700",
	"Mon, 02 Jan 2006 15:04 -0700",
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
}

// rfc2822Zones are the zone names RFC 2822 allows. time.Parse would read
// any of them other than the local zone as UTC.
var rfc2822Zones = map[string]string{
	"UT":  "+0000",
	"UTC": "+0000",
	"GMT": "+0000",
	"Z":   "+0000",
	"EST": "-0500",
	"EDT": "-0400",
	"CST": "-0600",
	"CDT": "-0500",
	"MST": "-0700",
	"MDT": "-0600",
	"PST": "-0800",
	"PDT": "-0700",
}

// numericZone rewrites a trailing RFC 2822 zone name as its offset.
func numericZone(raw string) string {
	i := strings.LastIndexByte(raw, ' ')
	if i < 0 {
		return raw
	}
	if off, ok := rfc2822Zones[strings.ToUpper(raw[i+1:])]; ok {
		return raw[:i+1] + off
	}
	return raw
}

// parsePubDate reads an RFC 2822 style date. Layouts that fit the common
// forms are tried first; dateparse covers the stragglers.
func parsePubDate(raw string) (time.Time, error) {
	raw = numericZone(strings.TrimSpace(raw))
	for _, layout := range pubDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	t, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized date %q: %w", raw, err)
	}
	return t, nil
}

// formatPubDate converts raw to YYYY-MM-DD in UTC.
func formatPubDate(raw string) (string, error) {
	t, err := parsePubDate(raw)
	if err != nil {
		return "", err
	}
	return t.UTC().Format("2006-01-02"), nil
}
