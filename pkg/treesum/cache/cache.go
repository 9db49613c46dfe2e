// Package cache persists file digests between runs so unchanged files are
// not read again. Entries are keyed by scan root and relative path and are
// only trusted when size, modification time and algorithm all still match.
package cache

import (
	"github.com/jamesainslie/treesum/pkg/treesum/digest"
)

// Cache is a digest cache backed by a Badger store.
// It is safe for concurrent use.
type Cache struct {
	store *Store
}

// Open opens or creates a cache in the directory at path.
func Open(path string) (*Cache, error) {
	store, err := OpenStore(path)
	if err != nil {
		return nil, err
	}
	return &Cache{store: store}, nil
}

// Close closes the cache.
func (c *Cache) Close() error {
	return c.store.Close()
}

// Lookup returns the cached digest for a file if the cached metadata still
// matches. Any storage error counts as a miss.
func (c *Cache) Lookup(root, relPath string, size, mtime int64, algo digest.Algorithm) (digest.Digest, bool) {
	entry, err := c.store.Get(root, relPath)
	if err != nil {
		return nil, false
	}
	if !entry.Matches(size, mtime, algo.String()) {
		return nil, false
	}
	return digest.Digest(entry.Digest), true
}

// Update writes freshly computed entries for root.
func (c *Cache) Update(root string, entries map[string]*Entry) error {
	if len(entries) == 0 {
		return nil
	}
	return c.store.PutBatch(root, entries)
}

// Clear removes all cached entries for a root.
func (c *Cache) Clear(root string) error {
	return c.store.DropPrefix(root)
}

// ClearAll removes all cached entries.
func (c *Cache) ClearAll() error {
	return c.store.DropAll()
}

// Stats describes cache contents.
type Stats struct {
	Entries   int
	Roots     int
	DiskBytes int64
}

// Stats counts entries and distinct roots.
func (c *Cache) Stats() (Stats, error) {
	roots := make(map[string]struct{})
	var s Stats
	err := c.store.Keys(func(key []byte) {
		root, _ := ParseKey(key)
		roots[root] = struct{}{}
		s.Entries++
	})
	if err != nil {
		return Stats{}, err
	}
	s.Roots = len(roots)
	lsm, vlog := c.store.DiskSize()
	s.DiskBytes = lsm + vlog
	return s, nil
}
