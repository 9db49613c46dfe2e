package digest

import (
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"
	"hash"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/xxh3"
	"golang.org/x/crypto/sha3"
	"lukechampine.com/blake3"
)

// Algorithm names a hash function used to digest file contents.
type Algorithm string

// Supported algorithms.
const (
	BLAKE3   Algorithm = "blake3"
	SHA256   Algorithm = "sha256"
	SHA512   Algorithm = "sha512"
	SHA3_256 Algorithm = "sha3-256"
	XXH64    Algorithm = "xxh64"
	XXH3_128 Algorithm = "xxh3-128"
)

// DefaultAlgorithm is used when no algorithm is configured.
const DefaultAlgorithm = BLAKE3

// ErrUnknownAlgorithm is returned for algorithm names that are not registered.
var ErrUnknownAlgorithm = errors.New("unknown digest algorithm")

type algorithmInfo struct {
	size          int
	cryptographic bool
	newHash       func() hash.Hash
}

var algorithms = map[Algorithm]algorithmInfo{
	BLAKE3:   {size: 32, cryptographic: true, newHash: func() hash.Hash { return blake3.New(32, nil) }},
	SHA256:   {size: sha256.Size, cryptographic: true, newHash: sha256.New},
	SHA512:   {size: sha512.Size, cryptographic: true, newHash: sha512.New},
	SHA3_256: {size: 32, cryptographic: true, newHash: sha3.New256},
	XXH64:    {size: 8, newHash: func() hash.Hash { return xxhash.New() }},
	XXH3_128: {size: 16, newHash: func() hash.Hash { return &xxh3Hash128{h: xxh3.New()} }},
}

var aliases = map[string]Algorithm{
	"sha-256":  SHA256,
	"sha-512":  SHA512,
	"sha3":     SHA3_256,
	"xxhash":   XXH64,
	"xxh3":     XXH3_128,
	"blake-3":  BLAKE3,
	"sha3_256": SHA3_256,
}

// ParseAlgorithm resolves a case-insensitive algorithm name.
func ParseAlgorithm(name string) (Algorithm, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return DefaultAlgorithm, nil
	}
	if a, ok := aliases[key]; ok {
		return a, nil
	}
	if _, ok := algorithms[Algorithm(key)]; ok {
		return Algorithm(key), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
}

// Algorithms returns every registered algorithm sorted by name.
func Algorithms() []Algorithm {
	out := make([]Algorithm, 0, len(algorithms))
	for a := range algorithms {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (a Algorithm) String() string {
	return string(a)
}

// Size returns the digest length in bytes, or 0 for unknown algorithms.
func (a Algorithm) Size() int {
	return algorithms[a].size
}

// Cryptographic reports whether the algorithm is collision resistant.
// The xxHash family is fast but must not be used for tamper detection.
func (a Algorithm) Cryptographic() bool {
	return algorithms[a].cryptographic
}

// New returns a fresh hash accumulator for the algorithm.
func (a Algorithm) New() (hash.Hash, error) {
	info, ok := algorithms[a]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, string(a))
	}
	return info.newHash(), nil
}

// Sum digests an in-memory buffer.
func (a Algorithm) Sum(data []byte) (Digest, error) {
	h, err := a.New()
	if err != nil {
		return nil, err
	}
	_, _ = h.Write(data) // hash.Hash writes never fail
	return Digest(h.Sum(nil)), nil
}

// xxh3Hash128 exposes the 128-bit xxh3 variant through hash.Hash.
type xxh3Hash128 struct {
	h *xxh3.Hasher
}

func (x *xxh3Hash128) Write(p []byte) (int, error) { return x.h.Write(p) }
func (x *xxh3Hash128) Reset()                      { x.h.Reset() }
func (x *xxh3Hash128) Size() int                   { return 16 }
func (x *xxh3Hash128) BlockSize() int              { return 64 }

func (x *xxh3Hash128) Sum(b []byte) []byte {
	sum := x.h.Sum128().Bytes()
	return append(b, sum[:]...)
}
