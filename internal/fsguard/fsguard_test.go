package fsguard_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"feedsync/internal/fsguard"
)

func TestResolveInsideRoot(t *testing.T) {
	dir := t.TempDir()
	root, err := fsguard.NewRoot(dir)
	require.NoError(t, err)

	got, err := root.Resolve(filepath.Join(dir, "blog", "rss-cache.xml"))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root.Dir(), "blog", "rss-cache.xml"), got)

	got, err = root.Resolve(dir)
	require.NoError(t, err)
	require.Equal(t, root.Dir(), got)

	// ".." segments that land back inside are fine
	_, err = root.Resolve(filepath.Join(dir, "a", "..", "b.xml"))
	require.NoError(t, err)
}

func TestResolveRejectsEscapes(t *testing.T) {
	dir := t.TempDir()
	root, err := fsguard.NewRoot(filepath.Join(dir, "data"))
	require.NoError(t, err)

	paths := []string{
		filepath.Join(dir, "data", "..", "..", "etc", "passwd"),
		filepath.Join(dir, "data", "..", "outside.xml"),
		filepath.Join(dir, "data-sibling", "x.xml"),
		"/etc/passwd",
		"",
	}
	for _, p := range paths {
		_, err := root.Resolve(p)
		require.ErrorIs(t, err, fsguard.ErrPathTraversal, p)
	}
}

func TestResolveFollowsSymlinks(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "data")
	outside := filepath.Join(dir, "outside")
	require.NoError(t, os.MkdirAll(filepath.Join(data, "real"), 0o755))
	require.NoError(t, os.MkdirAll(outside, 0o755))
	require.NoError(t, os.Symlink(outside, filepath.Join(data, "escape")))
	require.NoError(t, os.Symlink(filepath.Join(data, "real"), filepath.Join(data, "alias")))
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret.xml"), []byte("x"), 0o644))
	require.NoError(t, os.Symlink(filepath.Join(outside, "secret.xml"), filepath.Join(data, "cache.xml")))

	root, err := fsguard.NewRoot(data)
	require.NoError(t, err)

	for _, p := range []string{
		filepath.Join(data, "escape", "rss-cache.xml"),
		filepath.Join(data, "escape", "new", "dir", "file.json"),
		filepath.Join(data, "cache.xml"),
	} {
		_, err := root.Resolve(p)
		require.ErrorIs(t, err, fsguard.ErrPathTraversal, p)
	}

	got, err := root.Resolve(filepath.Join(data, "alias", "catalog.json"))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(data, "alias", "catalog.json"), got)

	// a root that is itself reached through a symlink still works
	link := filepath.Join(dir, "data-link")
	require.NoError(t, os.Symlink(data, link))
	linked, err := fsguard.NewRoot(link)
	require.NoError(t, err)
	_, err = linked.Resolve(filepath.Join(link, "real", "x.xml"))
	require.NoError(t, err)
}

func TestWriteFileCreatesParentsAndReplaces(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "nested", "deeper", "file.txt")

	require.NoError(t, fsguard.WriteFile(target, []byte("one"), 0o644))
	require.NoError(t, fsguard.WriteFile(target, []byte("two"), 0o644))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, "two", string(data))

	entries, err := os.ReadDir(filepath.Dir(target))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files must not be left behind")
}
