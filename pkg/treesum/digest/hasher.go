package digest

import (
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
)

// BufferSize is the read chunk size used when streaming file contents.
const BufferSize = 32 * 1024

// Hasher streams readers through one reusable accumulator and read buffer.
// The accumulator is reset after every call, so a single Hasher digests any
// number of files without reallocating. A Hasher is not safe for concurrent
// use; give each worker its own.
type Hasher struct {
	algo Algorithm
	h    hash.Hash
	buf  []byte
}

// NewHasher creates a Hasher for the given algorithm.
func NewHasher(algo Algorithm) (*Hasher, error) {
	h, err := algo.New()
	if err != nil {
		return nil, err
	}
	return &Hasher{
		algo: algo,
		h:    h,
		buf:  make([]byte, BufferSize),
	}, nil
}

// Algorithm returns the algorithm this Hasher computes.
func (h *Hasher) Algorithm() Algorithm {
	return h.algo
}

// HashFile digests the file at path.
func (h *Hasher) HashFile(path string) (Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	d, err := h.HashReader(f)
	if err != nil {
		return nil, fmt.Errorf("hashing %s: %w", path, err)
	}
	return d, nil
}

// HashReader digests everything readable from r.
// On a read failure no digest is returned; the accumulator is still reset.
func (h *Hasher) HashReader(r io.Reader) (Digest, error) {
	defer h.h.Reset()

	for {
		n, err := r.Read(h.buf)
		if n > 0 {
			_, _ = h.h.Write(h.buf[:n])
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading: %w", err)
		}
	}

	return Digest(h.h.Sum(nil)), nil
}
