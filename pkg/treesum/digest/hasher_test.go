package digest_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/treesum/pkg/treesum/digest"
)

func TestKnownVectors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		algo  digest.Algorithm
		input string
		want  string
	}{
		{algo: digest.SHA256, input: "", want: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{algo: digest.SHA256, input: "abc", want: "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{algo: digest.BLAKE3, input: "", want: "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262"},
		{algo: digest.SHA3_256, input: "", want: "a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a"},
		{algo: digest.XXH64, input: "", want: "ef46db3751d8e999"},
	}

	for _, tt := range tests {
		t.Run(string(tt.algo)+"/"+tt.input, func(t *testing.T) {
			t.Parallel()
			h, err := digest.NewHasher(tt.algo)
			require.NoError(t, err)

			got, err := h.HashReader(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
			assert.Equal(t, tt.algo.Size(), got.Len())
		})
	}
}

func TestEveryAlgorithmProducesItsSize(t *testing.T) {
	t.Parallel()

	for _, algo := range digest.Algorithms() {
		t.Run(string(algo), func(t *testing.T) {
			t.Parallel()
			d, err := algo.Sum([]byte("hello world"))
			require.NoError(t, err)
			assert.Equal(t, algo.Size(), d.Len())
		})
	}
}

func TestHasherResetsBetweenUses(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	first := filepath.Join(dir, "first")
	second := filepath.Join(dir, "second")
	require.NoError(t, os.WriteFile(first, []byte("hello"), 0o644))
	require.NoError(t, os.WriteFile(second, []byte("hello"), 0o644))

	h, err := digest.NewHasher(digest.BLAKE3)
	require.NoError(t, err)

	d1, err := h.HashFile(first)
	require.NoError(t, err)
	d2, err := h.HashFile(second)
	require.NoError(t, err)

	assert.True(t, d1.Equal(d2), "identical content must hash identically on a reused hasher")

	want, err := digest.BLAKE3.Sum([]byte("hello"))
	require.NoError(t, err)
	assert.True(t, want.Equal(d1))
}

func TestHashReaderLargerThanBuffer(t *testing.T) {
	t.Parallel()

	data := bytes.Repeat([]byte("0123456789abcdef"), digest.BufferSize/4)
	h, err := digest.NewHasher(digest.SHA256)
	require.NoError(t, err)

	got, err := h.HashReader(bytes.NewReader(data))
	require.NoError(t, err)

	want, err := digest.SHA256.Sum(data)
	require.NoError(t, err)
	assert.True(t, want.Equal(got))
}

type failingReader struct {
	served bool
}

func (r *failingReader) Read(p []byte) (int, error) {
	if !r.served {
		r.served = true
		return copy(p, "partial"), nil
	}
	return 0, errors.New("device gone")
}

func TestHashReaderFailureResetsState(t *testing.T) {
	t.Parallel()

	h, err := digest.NewHasher(digest.SHA256)
	require.NoError(t, err)

	d, err := h.HashReader(&failingReader{})
	require.Error(t, err)
	assert.Nil(t, d)

	got, err := h.HashReader(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", got.String())
}

func TestHashFileMissing(t *testing.T) {
	t.Parallel()

	h, err := digest.NewHasher(digest.BLAKE3)
	require.NoError(t, err)

	_, err = h.HashFile(filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseAlgorithm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    digest.Algorithm
		wantErr bool
	}{
		{input: "blake3", want: digest.BLAKE3},
		{input: "SHA256", want: digest.SHA256},
		{input: "sha-512", want: digest.SHA512},
		{input: " xxh3 ", want: digest.XXH3_128},
		{input: "", want: digest.DefaultAlgorithm},
		{input: "md5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, err := digest.ParseAlgorithm(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, digest.ErrUnknownAlgorithm)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAlgorithmsSortedAndFlagged(t *testing.T) {
	t.Parallel()

	algos := digest.Algorithms()
	require.Len(t, algos, 6)
	for i := 1; i < len(algos); i++ {
		assert.Less(t, algos[i-1], algos[i])
	}

	assert.True(t, digest.BLAKE3.Cryptographic())
	assert.False(t, digest.XXH64.Cryptographic())
	assert.False(t, digest.XXH3_128.Cryptographic())

	_, err := digest.Algorithm("crc32").New()
	assert.ErrorIs(t, err, digest.ErrUnknownAlgorithm)
}
