package cache

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// ErrNotFound is returned when a cache entry doesn't exist.
var ErrNotFound = errors.New("cache entry not found")

// Store wraps Badger for raw entry access.
type Store struct {
	db *badger.DB
}

// OpenStore opens or creates a store in the directory at path.
func OpenStore(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening digest cache at %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the entry for root and relPath or ErrNotFound.
func (s *Store) Get(root, relPath string) (*Entry, error) {
	var entry Entry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(MakeKey(root, relPath))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(entry.Decode)
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// PutBatch stores many entries under one root through a write batch.
func (s *Store) PutBatch(root string, entries map[string]*Entry) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for relPath, entry := range entries {
		value, err := entry.Encode()
		if err != nil {
			return err
		}
		if err := wb.Set(MakeKey(root, relPath), value); err != nil {
			return err
		}
	}
	return wb.Flush()
}

// DropPrefix removes every entry under root.
func (s *Store) DropPrefix(root string) error {
	return s.db.DropPrefix(MakeKeyPrefix(root))
}

// DropAll removes every entry.
func (s *Store) DropAll() error {
	return s.db.DropAll()
}

// Keys calls fn for every key in the store.
func (s *Store) Keys(fn func(key []byte)) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			fn(it.Item().Key())
		}
		return nil
	})
}

// DiskSize returns the on-disk LSM and value log sizes in bytes.
func (s *Store) DiskSize() (lsm, vlog int64) {
	return s.db.Size()
}
