package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/treesum/pkg/treesum/digest"
)

func TestHashWorkerSkipsFilesThatFailToRead(t *testing.T) {
	root := t.TempDir()
	kept := filepath.Join(root, "kept.txt")
	require.NoError(t, os.WriteFile(kept, []byte("kept"), 0o644))
	vanished := filepath.Join(root, "vanished.txt")

	s, err := New(Options{Root: root})
	require.NoError(t, err)
	s.root = root

	hasher, err := digest.NewHasher(s.opts.Algorithm)
	require.NoError(t, err)

	// The second file was queued by the walk and removed before hashing.
	jobs := make(chan fileJob, 2)
	jobs <- fileJob{abs: vanished, rel: []string{"vanished.txt"}, size: 4}
	jobs <- fileJob{abs: kept, rel: []string{"kept.txt"}, size: 4}
	close(jobs)

	results := make(chan entry, 2)
	s.hashWorker(context.Background(), hasher, jobs, results)
	close(results)

	var got []entry
	for e := range results {
		got = append(got, e)
	}
	require.Len(t, got, 1, "the worker carries on after a read failure")
	assert.Equal(t, []string{"kept.txt"}, got[0].path)
	want, err := s.opts.Algorithm.Sum([]byte("kept"))
	require.NoError(t, err)
	assert.True(t, want.Equal(got[0].digest))

	require.Len(t, s.errors, 1)
	assert.Equal(t, vanished, s.errors[0].Path)
	assert.Equal(t, int64(1), s.skipped.Load())
	assert.Equal(t, int64(1), s.filesHashed.Load())
	assert.Equal(t, int64(4), s.bytesHashed.Load())
}
