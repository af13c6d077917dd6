package cache_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"feedsync/internal/cache"
	"feedsync/internal/fsguard"
	"feedsync/internal/logger"
)

func newStore(t *testing.T) (*cache.Store, string) {
	t.Helper()
	dir := t.TempDir()
	root, err := fsguard.NewRoot(dir)
	require.NoError(t, err)
	return cache.NewStore(root, logger.Discard()), dir
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	store, dir := newStore(t)

	content, ok, err := store.Load(filepath.Join(dir, "rss-cache.xml"))
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, content)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store, dir := newStore(t)
	path := filepath.Join(dir, "blog", "rss-cache.xml")

	values := []string{
		`<?xml version="1.0"?><rss><channel></channel></rss>`,
		"line one\nline two\r\n",
		"  leading and trailing whitespace  ",
		"マルチバイト文字",
	}
	for _, v := range values {
		require.NoError(t, store.Save(path, v))
		got, ok, err := store.Load(path)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, v, got)
	}
}

func TestLoadBlankFileIsAbsent(t *testing.T) {
	store, dir := newStore(t)
	path := filepath.Join(dir, "rss-cache.xml")
	require.NoError(t, os.WriteFile(path, []byte(" \n\t"), 0o644))

	_, ok, err := store.Load(path)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLoadUnreadableIsAbsent(t *testing.T) {
	store, dir := newStore(t)
	// a directory in place of the file cannot be read as one
	path := filepath.Join(dir, "rss-cache.xml")
	require.NoError(t, os.Mkdir(path, 0o755))

	_, ok, err := store.Load(path)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPathTraversalRejectedBeforeTouchingDisk(t *testing.T) {
	store, dir := newStore(t)
	outside := filepath.Join(dir, "..", "escaped-cache.xml")

	_, _, err := store.Load(outside)
	require.ErrorIs(t, err, fsguard.ErrPathTraversal)

	err = store.Save(outside, "data")
	require.ErrorIs(t, err, fsguard.ErrPathTraversal)
	_, statErr := os.Stat(outside)
	require.True(t, os.IsNotExist(statErr))

	_, _, err = store.Load("/etc/hostname")
	require.ErrorIs(t, err, fsguard.ErrPathTraversal)
}

func TestSaveFailureIsReturned(t *testing.T) {
	store, dir := newStore(t)
	// a regular file where a parent directory is needed
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := store.Save(filepath.Join(blocker, "rss-cache.xml"), "data")
	require.Error(t, err)
	require.NotErrorIs(t, err, fsguard.ErrPathTraversal)
}
