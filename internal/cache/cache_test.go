package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hdl-checker/hdl-checker/internal/ident"
)

func TestSaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.json")

	c := New(path)
	c.PutFile(FileEntry{
		Path:        "/proj/foo.vhd",
		ModTime:     time.Unix(1000, 0).UTC(),
		Size:        42,
		Library:     "lib_a",
		ContentHash: "abc123",
	})
	require.NoError(t, c.Save())

	reloaded := New(path)
	require.NoError(t, reloaded.Load())

	p := ident.NewPath("/proj/foo.vhd")
	_, ok := reloaded.Lookup(p) // zero ModTime/Size on p: mismatch expected
	require.False(t, ok)

	entry, ok := reloaded.data.Files["/proj/foo.vhd"]
	require.True(t, ok)
	require.Equal(t, "lib_a", entry.Library)
	require.Equal(t, "abc123", entry.ContentHash)
}

func TestLoadDiscardsOnVersionMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.json")

	stale := New(path)
	stale.data.Version = SchemaVersion + 1
	stale.PutFile(FileEntry{Path: "/proj/foo.vhd"})
	require.NoError(t, writeJSONAtomic(path, stale.data))

	c := New(path)
	require.NoError(t, c.Load())
	require.Empty(t, c.data.Files)
}

func TestLoadDiscardsOnCorruptJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{not valid json"), 0o644))

	c := New(path)
	require.NoError(t, c.Load())
	require.Empty(t, c.data.Files)
}

func TestLookupRejectsStaleMtime(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.json")
	c := New(path)

	mtime := time.Unix(1000, 0).UTC()
	c.PutFile(FileEntry{Path: "/proj/foo.vhd", ModTime: mtime, Size: 10})

	fresh := ident.NewPath("/proj/foo.vhd")
	_, ok := c.Lookup(fresh)
	require.False(t, ok, "zero-value stat on the live path should not match the cached mtime")
}

func TestAdapterManifestRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.json")
	c := New(path)
	c.PutAdapterManifest(AdapterLibraryManifest{Adapter: "ghdl", LibrariesBuilt: []string{"work", "lib_a"}})

	m, ok := c.AdapterManifest("ghdl")
	require.True(t, ok)
	require.Equal(t, []string{"work", "lib_a"}, m.LibrariesBuilt)

	_, ok = c.AdapterManifest("msim")
	require.False(t, ok)
}
