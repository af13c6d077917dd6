// Package catalog holds the persisted article list and its merge rules.
package catalog

import "sort"

// Entry is one article in the catalog file. ExternalURL is the identity.
// An absent or empty publishedAt both mean undated, and an undated entry is
// written without the field.
type Entry struct {
	ID          string `json:"id"`
	ExternalURL string `json:"externalUrl"`
	PublishedAt string `json:"publishedAt,omitempty"`
}

// Dated reports whether the entry carries a publish date.
func (e Entry) Dated() bool {
	return e.PublishedAt != ""
}

// MergeAndSort combines existing and incoming entries keyed by ExternalURL.
// Incoming entries replace existing ones with the same URL but keep the
// position of the first insertion. Dated entries come first, newest first,
// with ExternalURL ascending between equal dates; undated entries follow in
// insertion order. Neither input is modified.
func MergeAndSort(existing, incoming []Entry) []Entry {
	index := make(map[string]int, len(existing)+len(incoming))
	merged := make([]Entry, 0, len(existing)+len(incoming))

	put := func(e Entry) {
		if i, ok := index[e.ExternalURL]; ok {
			merged[i] = e
			return
		}
		index[e.ExternalURL] = len(merged)
		merged = append(merged, e)
	}
	for _, e := range existing {
		put(e)
	}
	for _, e := range incoming {
		put(e)
	}

	dated := make([]Entry, 0, len(merged))
	var undated []Entry
	for _, e := range merged {
		if e.Dated() {
			dated = append(dated, e)
		} else {
			undated = append(undated, e)
		}
	}

	// YYYY-MM-DD is fixed width, so string order is date order.
	sort.SliceStable(dated, func(i, j int) bool {
		if dated[i].PublishedAt != dated[j].PublishedAt {
			return dated[i].PublishedAt > dated[j].PublishedAt
		}
		return dated[i].ExternalURL < dated[j].ExternalURL
	})

	return append(dated, undated...)
}
