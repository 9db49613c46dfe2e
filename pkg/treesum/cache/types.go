package cache

import (
	"bytes"
	"encoding/gob"
)

// KeySeparator separates root from relative path in cache keys.
const KeySeparator = '\x00'

// Entry is the cached digest of one file along with the metadata that
// proves it is still current.
type Entry struct {
	Algorithm string
	Size      int64
	Mtime     int64 // UnixNano
	Digest    []byte
}

// Matches reports whether the entry was computed from a file with the given
// size and mtime using algo.
func (e *Entry) Matches(size, mtime int64, algo string) bool {
	return e.Size == size && e.Mtime == mtime && e.Algorithm == algo
}

// Encode serializes the entry using gob.
func (e *Entry) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(e); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode deserializes gob bytes into the entry.
func (e *Entry) Decode(data []byte) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(e)
}

// MakeKey builds the key for a file: <root>\x00<relative/path>.
func MakeKey(root, relPath string) []byte {
	return append(MakeKeyPrefix(root), relPath...)
}

// ParseKey splits a key into root and relative path.
func ParseKey(key []byte) (root, relPath string) {
	idx := bytes.IndexByte(key, KeySeparator)
	if idx == -1 {
		return string(key), ""
	}
	return string(key[:idx]), string(key[idx+1:])
}

// MakeKeyPrefix returns the prefix shared by every key under root.
func MakeKeyPrefix(root string) []byte {
	key := make([]byte, 0, len(root)+1)
	key = append(key, root...)
	return append(key, KeySeparator)
}
