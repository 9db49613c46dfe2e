package cache_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/treesum/pkg/treesum/cache"
	"github.com/jamesainslie/treesum/pkg/treesum/digest"
)

func openCache(t *testing.T) *cache.Cache {
	t.Helper()
	c, err := cache.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestLookupValidation(t *testing.T) {
	t.Parallel()

	c := openCache(t)
	root := "/srv/data"
	mtime := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC).UnixNano()
	d := digest.MustParse("cafebabe")

	require.NoError(t, c.Update(root, map[string]*cache.Entry{
		"a/b.txt": {Algorithm: "blake3", Size: 42, Mtime: mtime, Digest: d},
	}))

	tests := []struct {
		name   string
		rel    string
		size   int64
		mtime  int64
		algo   digest.Algorithm
		wantOK bool
	}{
		{name: "hit", rel: "a/b.txt", size: 42, mtime: mtime, algo: digest.BLAKE3, wantOK: true},
		{name: "size changed", rel: "a/b.txt", size: 43, mtime: mtime, algo: digest.BLAKE3},
		{name: "mtime changed", rel: "a/b.txt", size: 42, mtime: mtime + 1, algo: digest.BLAKE3},
		{name: "other algorithm", rel: "a/b.txt", size: 42, mtime: mtime, algo: digest.SHA256},
		{name: "unknown path", rel: "a/c.txt", size: 42, mtime: mtime, algo: digest.BLAKE3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := c.Lookup(root, tt.rel, tt.size, tt.mtime, tt.algo)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.True(t, d.Equal(got))
			}
		})
	}
}

func TestClearScopesToRoot(t *testing.T) {
	t.Parallel()

	c := openCache(t)
	entry := &cache.Entry{Algorithm: "sha256", Size: 1, Mtime: 1, Digest: []byte{1}}

	require.NoError(t, c.Update("/one", map[string]*cache.Entry{"f": entry}))
	require.NoError(t, c.Update("/one/two", map[string]*cache.Entry{"f": entry}))
	require.NoError(t, c.Update("/three", map[string]*cache.Entry{"f": entry, "g": entry}))

	stats, err := c.Stats()
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Entries)
	assert.Equal(t, 3, stats.Roots)

	require.NoError(t, c.Clear("/one"))

	_, ok := c.Lookup("/one", "f", 1, 1, digest.SHA256)
	assert.False(t, ok)
	_, ok = c.Lookup("/one/two", "f", 1, 1, digest.SHA256)
	assert.True(t, ok, "clearing a root must not touch roots that share its prefix")

	require.NoError(t, c.ClearAll())
	stats, err = c.Stats()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Entries)
}

func TestUpdateEmptyIsNoop(t *testing.T) {
	t.Parallel()

	c := openCache(t)
	require.NoError(t, c.Update("/r", nil))
}

func TestPersistsAcrossReopen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c, err := cache.Open(dir)
	require.NoError(t, err)
	require.NoError(t, c.Update("/r", map[string]*cache.Entry{
		"x": {Algorithm: "xxh64", Size: 5, Mtime: 7, Digest: []byte{0xab}},
	}))
	require.NoError(t, c.Close())

	c, err = cache.Open(dir)
	require.NoError(t, err)
	defer c.Close()

	got, ok := c.Lookup("/r", "x", 5, 7, digest.XXH64)
	require.True(t, ok)
	assert.Equal(t, "ab", got.String())
}
