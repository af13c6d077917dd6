package rss_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"feedsync/internal/logger"
	"feedsync/internal/rss"
)

func TestDetectDiffFirstRun(t *testing.T) {
	raw := feedXML(
		item(awsPrefix+"a/", "Tue, 01 Jul 2025 00:00:00 +0000"),
		item(awsPrefix+"b/", "Mon, 30 Jun 2025 00:00:00 +0000"),
	)

	diff := rss.DetectDiff(raw, "")

	require.True(t, diff.HasChanges)
	require.ElementsMatch(t, []string{awsPrefix + "a/", awsPrefix + "b/"}, diff.NewURLs)
}

func TestDetectDiffUnchanged(t *testing.T) {
	raw := feedXML(item(awsPrefix+"a/", "Tue, 01 Jul 2025 00:00:00 +0000"))

	diff := rss.DetectDiff(raw, raw)

	require.False(t, diff.HasChanges)
	require.Empty(t, diff.NewURLs)
}

func TestDetectDiffSetDifference(t *testing.T) {
	previous := feedXML(
		item(awsPrefix+"b/", "x"),
		item(awsPrefix+"a/", "x"),
		item(awsPrefix+"old/", "x"),
	)
	current := feedXML(
		item(awsPrefix+"new-1/", "x"),
		item(awsPrefix+"a/", "x"),
		item(awsPrefix+"new-2/", "x"),
		item(awsPrefix+"new-1/", "x"),
		item(" "+awsPrefix+"b/ ", "x"),
	)

	diff := rss.DetectDiff(current, previous)

	require.True(t, diff.HasChanges)
	require.ElementsMatch(t, []string{awsPrefix + "new-1/", awsPrefix + "new-2/"}, diff.NewURLs)
}

func TestDetectDiffEmptyFeed(t *testing.T) {
	diff := rss.DetectDiff(feedXML(), "")
	require.False(t, diff.HasChanges)
	require.Empty(t, diff.NewURLs)
}

func TestDetectDiffToleratesBrokenDocuments(t *testing.T) {
	good := feedXML(item(awsPrefix+"a/", "x"))

	require.False(t, rss.DetectDiff("this is not xml at all <<>>", good).HasChanges)
	require.False(t, rss.DetectDiff(`<rss version="2.0"></rss>`, "").HasChanges)

	// an unusable previous snapshot degrades to "everything is new"
	diff := rss.DetectDiff(good, "<<garbage")
	require.Equal(t, []string{awsPrefix + "a/"}, diff.NewURLs)
}

func TestDetectDiffAgreesWithNormalizerOnCDATA(t *testing.T) {
	raw := feedXML(
		`<item><link><![CDATA[ `+awsPrefix+`cdata/ ]]></link><pubDate>Tue, 01 Jul 2025 00:00:00 +0000</pubDate></item>`,
		item(awsPrefix+"plain/", "Tue, 01 Jul 2025 00:00:00 +0000"),
	)

	diff := rss.DetectDiff(raw, "")
	articles, _, err := rss.NewNormalizer(awsPrefix, logger.Discard()).Normalize(raw)
	require.NoError(t, err)

	urls := make([]string, len(articles))
	for i, a := range articles {
		urls[i] = a.ExternalURL
	}
	require.ElementsMatch(t, urls, diff.NewURLs)
}

func TestExtractLinksAllItems(t *testing.T) {
	links, err := rss.ExtractLinks(feedXML(
		item("https://elsewhere.example/x/", "x"),
		`<item><title>no link</title></item>`,
	))
	require.NoError(t, err)
	require.Equal(t, []string{"https://elsewhere.example/x/"}, links)
}
