package rss

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf16"
)

var slugPattern = regexp.MustCompile(`(?i)^[a-z0-9-]+$`)

// ExtractIDFromURL strips every trailing "/" and returns the last path
// segment, e.g. "https://host/news/my-article/" gives "my-article".
func ExtractIDFromURL(u string) string {
	trimmed := strings.TrimRight(u, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

// ValidSlug reports whether s is a non-empty run of letters, digits and "-".
func ValidSlug(s string) bool {
	return s != "" && slugPattern.MatchString(s)
}

// HashURL sums the UTF-16 code units of u and returns the sum modulo 10000
// as four zero-padded digits.
func HashURL(u string) string {
	sum := 0
	for _, c := range utf16.Encode([]rune(u)) {
		sum += int(c)
	}
	return fmt.Sprintf("%04d", sum%10000)
}

// idAllocator hands out unique ids for one normalization pass. A slug keeps
// its plain form until a second, different URL claims it; from then on both
// carry a "-NNNN" hash suffix. A plain slug that matches an id already handed
// out is suffixed too. Only an id still taken after suffixing is skipped.
type idAllocator struct {
	firstURL map[string]string // slug -> first URL that produced it
	firstIdx map[string]int    // slug -> index of that article
	suffixed map[string]bool
	links    map[string]bool
	ids      map[string]int
}

func newIDAllocator() *idAllocator {
	return &idAllocator{
		firstURL: make(map[string]string),
		firstIdx: make(map[string]int),
		suffixed: make(map[string]bool),
		links:    make(map[string]bool),
		ids:      make(map[string]int),
	}
}

// place appends a to articles with a unique id, or reports why it cannot.
// a.ID holds the plain slug on entry.
func (s *idAllocator) place(articles []Article, a Article) ([]Article, *Skip) {
	if s.links[a.ExternalURL] {
		return articles, &Skip{Reason: SkipDuplicate, Link: a.ExternalURL}
	}

	slug := a.ID
	first, seen := s.firstURL[slug]
	if seen {
		if !s.suffixed[slug] {
			idx := s.firstIdx[slug]
			renamed := slug + "-" + HashURL(first)
			if _, taken := s.ids[renamed]; !taken {
				delete(s.ids, articles[idx].ID)
				articles[idx].ID = renamed
				s.ids[renamed] = idx
			}
			s.suffixed[slug] = true
		}
		a.ID = slug + "-" + HashURL(a.ExternalURL)
	} else if _, taken := s.ids[a.ID]; taken {
		// plain slug equals an earlier suffixed id
		a.ID = slug + "-" + HashURL(a.ExternalURL)
	}

	if _, taken := s.ids[a.ID]; taken {
		return articles, &Skip{Reason: SkipIDCollision, Link: a.ExternalURL, Detail: a.ID}
	}

	if !seen {
		s.firstURL[slug] = a.ExternalURL
		s.firstIdx[slug] = len(articles)
	}
	s.links[a.ExternalURL] = true
	s.ids[a.ID] = len(articles)
	return append(articles, a), nil
}
