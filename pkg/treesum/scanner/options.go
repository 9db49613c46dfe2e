// Package scanner walks a directory and builds its snapshot tree. A
// fastwalk traversal feeds regular files to a pool of hash workers, and a
// single collector goroutine owns the resulting snapshot.Contents.
package scanner

import (
	"fmt"

	"github.com/jamesainslie/treesum/pkg/treesum/cache"
	"github.com/jamesainslie/treesum/pkg/treesum/config"
	"github.com/jamesainslie/treesum/pkg/treesum/digest"
	"github.com/jamesainslie/treesum/pkg/treesum/ignore"
	"github.com/jamesainslie/treesum/pkg/treesum/tuner"
	"github.com/jamesainslie/treesum/pkg/treesum/types"
)

// Options configures the scanner behavior.
type Options struct {
	// Root is the directory to snapshot.
	Root string

	// Algorithm selects the file digest. Empty means digest.DefaultAlgorithm.
	Algorithm digest.Algorithm

	// Ignore decides which entries are left out. Nil keeps everything.
	Ignore *ignore.Matcher

	// DirWorkers is the number of concurrent directory readers.
	// Zero or less picks a value from the detected hardware.
	DirWorkers int

	// FileWorkers is the number of hashing goroutines.
	// Zero or less picks a value from the detected hardware.
	FileWorkers int

	// QueueSize bounds the hash job queue. Zero or less is auto.
	QueueSize int

	// FollowSymlinks hashes symlink targets instead of skipping links.
	FollowSymlinks bool

	// Cache is an optional digest cache. If nil, every file is read.
	Cache *cache.Cache

	// OnProgress is called periodically with scan progress updates.
	// It must be safe to call from multiple goroutines.
	OnProgress func(types.ScanProgress)
}

// DefaultOptions returns options for scanning the current directory.
func DefaultOptions() Options {
	return Options{
		Root:        config.DefaultPath,
		Algorithm:   digest.DefaultAlgorithm,
		DirWorkers:  config.DefaultDirWorkers,
		FileWorkers: config.DefaultFileWorkers,
	}
}

// Validate fills in defaults and rejects unknown algorithms.
func (o *Options) Validate() error {
	if o.Root == "" {
		o.Root = config.DefaultPath
	}

	algo, err := digest.ParseAlgorithm(string(o.Algorithm))
	if err != nil {
		return fmt.Errorf("scanner options: %w", err)
	}
	o.Algorithm = algo

	auto := tuner.Auto(o.DirWorkers, o.FileWorkers)
	o.DirWorkers = auto.DirWorkers
	o.FileWorkers = auto.FileWorkers
	if o.QueueSize < 1 {
		o.QueueSize = auto.QueueSize
	}

	return nil
}
