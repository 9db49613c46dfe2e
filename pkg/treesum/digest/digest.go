// Package digest provides the fixed-length content digest that stands in for
// a file in a snapshot, the registry of supported hash algorithms, and a
// reusable streaming Hasher.
//
// A Digest renders as lowercase hex and parses back losslessly:
//
//	d, err := digest.Parse("af1349b9...")
//	fmt.Println(d) // af1349b9...
package digest

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrInvalidHex indicates that a digest string is not valid hexadecimal.
var ErrInvalidHex = errors.New("invalid hex digest")

// DecodeError is returned when a textual digest cannot be decoded.
// It matches ErrInvalidHex with errors.Is.
type DecodeError struct {
	// Input is the text that failed to decode.
	Input string

	// Err is the underlying decoding failure.
	Err error
}

func (e *DecodeError) Error() string {
	in := e.Input
	if len(in) > 24 {
		in = in[:24] + "..."
	}
	return fmt.Sprintf("decoding digest %q: %v", in, e.Err)
}

// Unwrap exposes both ErrInvalidHex and the underlying cause.
func (e *DecodeError) Unwrap() []error {
	return []error{ErrInvalidHex, e.Err}
}

// Digest is the output of a hash function over a file's contents.
// A Digest is never mutated after construction.
type Digest []byte

// Parse decodes a hex string into a Digest.
// Upper-case hex is accepted; odd length, non-hex characters and the empty
// string are rejected with a *DecodeError.
func Parse(s string) (Digest, error) {
	if s == "" {
		return nil, &DecodeError{Input: s, Err: errors.New("empty digest")}
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, &DecodeError{Input: s, Err: err}
	}
	return Digest(b), nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level fixtures.
func MustParse(s string) Digest {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// String returns the lowercase hex encoding of the digest.
func (d Digest) String() string {
	return hex.EncodeToString(d)
}

// Equal reports whether two digests contain the same bytes.
func (d Digest) Equal(other Digest) bool {
	return bytes.Equal(d, other)
}

// Compare orders digests byte-wise, returning -1, 0 or +1.
func (d Digest) Compare(other Digest) int {
	return bytes.Compare(d, other)
}

// Len returns the digest length in bytes.
func (d Digest) Len() int {
	return len(d)
}

// Clone returns a copy that shares no memory with d.
func (d Digest) Clone() Digest {
	if d == nil {
		return nil
	}
	return append(Digest(nil), d...)
}

// MarshalText implements encoding.TextMarshaler.
func (d Digest) MarshalText() ([]byte, error) {
	out := make([]byte, hex.EncodedLen(len(d)))
	hex.Encode(out, d)
	return out, nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Digest) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
