package rss

import (
	"strings"

	gofeedrss "github.com/mmcdole/gofeed/rss"
)

// DiffResult lists links present in the current feed but not the previous.
// NewURLs follows document order of the current feed; callers should not
// rely on it.
type DiffResult struct {
	NewURLs    []string
	HasChanges bool
}

// DetectDiff compares the links of two raw feeds. An empty previous means
// there is no earlier snapshot and every current link is new. Documents that
// fail to parse contribute no links.
func DetectDiff(current, previous string) DiffResult {
	currentLinks, _ := ExtractLinks(current)

	var previousLinks map[string]struct{}
	if strings.TrimSpace(previous) != "" {
		links, _ := ExtractLinks(previous)
		previousLinks = make(map[string]struct{}, len(links))
		for _, l := range links {
			previousLinks[l] = struct{}{}
		}
	}

	newURLs := make([]string, 0, len(currentLinks))
	for _, l := range currentLinks {
		if _, ok := previousLinks[l]; ok {
			continue
		}
		newURLs = append(newURLs, l)
	}
	return DiffResult{NewURLs: newURLs, HasChanges: len(newURLs) > 0}
}

// ExtractLinks returns the distinct, trimmed, non-empty item links of raw in
// document order. A feed without a channel yields no links and no error.
func ExtractLinks(raw string) ([]string, error) {
	feed, err := new(gofeedrss.Parser).Parse(strings.NewReader(raw))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(feed.Items))
	links := make([]string, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		link := strings.TrimSpace(item.Link)
		if link == "" {
			continue
		}
		if _, dup := seen[link]; dup {
			continue
		}
		seen[link] = struct{}{}
		links = append(links, link)
	}
	return links, nil
}
