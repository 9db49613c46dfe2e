package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charlievieth/fastwalk"

	"github.com/jamesainslie/treesum/pkg/treesum/cache"
	"github.com/jamesainslie/treesum/pkg/treesum/digest"
	"github.com/jamesainslie/treesum/pkg/treesum/logging"
	"github.com/jamesainslie/treesum/pkg/treesum/snapshot"
	"github.com/jamesainslie/treesum/pkg/treesum/types"
)

// ErrNotDirectory is returned when the scan root is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// Result is a finished, possibly partial, snapshot.
type Result struct {
	// Root is the absolute path that was scanned.
	Root string

	// Algorithm is the digest used for every leaf.
	Algorithm digest.Algorithm

	// Tree holds every directory and readable regular file under Root.
	Tree *snapshot.Contents

	Stats types.ScanStats

	// Errors lists entries left out of Tree, sorted by path.
	Errors []types.ScanError

	// Interrupted is set when the context was cancelled before the walk
	// finished. Tree is still well formed but incomplete.
	Interrupted bool
}

// Scanner builds a snapshot of one directory. A Scanner is used for a
// single Scan.
type Scanner struct {
	opts Options
	root string

	dirsScanned atomic.Int64
	filesHashed atomic.Int64
	bytesHashed atomic.Int64
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
	skipped     atomic.Int64
	ignored     atomic.Int64

	currentPath  atomic.Value
	lastProgress atomic.Int64
	walkComplete atomic.Bool

	errors   []types.ScanError
	errorsMu sync.Mutex

	// fresh collects newly computed digests for the cache, keyed by
	// slash-separated relative path.
	fresh   map[string]*cache.Entry
	freshMu sync.Mutex

	// ignoredLinks holds followed directory links that matched an ignore
	// rule, as slash-separated relative paths.
	ignoredLinks   []string
	ignoredLinksMu sync.RWMutex
}

// entry is one completed walk item headed for the collector.
type entry struct {
	path   []string
	dir    bool
	size   int64
	digest digest.Digest
}

// fileJob is a regular file waiting to be hashed.
type fileJob struct {
	abs   string
	rel   []string
	size  int64
	mtime int64
}

// New validates opts and returns a Scanner.
func New(opts Options) (*Scanner, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	s := &Scanner{opts: opts}
	s.currentPath.Store("")
	return s, nil
}

// Options returns the validated options.
func (s *Scanner) Options() Options {
	return s.opts
}

// Scan walks the root and returns its snapshot. It returns an error only
// when the root itself cannot be scanned; per-entry failures are collected
// in Result.Errors. Cancelling ctx yields a partial Result with
// Interrupted set.
func (s *Scanner) Scan(ctx context.Context) (*Result, error) {
	start := time.Now()
	log := logging.Get("scanner")

	root, err := s.validateRoot()
	if err != nil {
		return nil, err
	}
	s.root = root
	s.fresh = make(map[string]*cache.Entry)

	log.Info("scan started", "root", root, "algorithm", s.opts.Algorithm,
		"dir_workers", s.opts.DirWorkers, "file_workers", s.opts.FileWorkers)

	s.currentPath.Store(root)
	s.reportProgressForce()

	hashers := make([]*digest.Hasher, s.opts.FileWorkers)
	for i := range hashers {
		if hashers[i], err = digest.NewHasher(s.opts.Algorithm); err != nil {
			return nil, err
		}
	}

	jobs := make(chan fileJob, s.opts.QueueSize)
	results := make(chan entry, s.opts.QueueSize)

	tree := snapshot.New()
	var stats types.ScanStats
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		s.collect(tree, &stats, results)
	}()

	var workers sync.WaitGroup
	for _, hasher := range hashers {
		workers.Add(1)
		go func() {
			defer workers.Done()
			s.hashWorker(ctx, hasher, jobs, results)
		}()
	}

	walkErr := s.walk(ctx, jobs, results)

	close(jobs)
	workers.Wait()
	close(results)
	<-collected

	s.walkComplete.Store(true)
	s.currentPath.Store("")
	s.reportProgressForce()

	s.flushCache()

	if walkErr != nil && ctx.Err() == nil {
		return nil, fmt.Errorf("walking %s: %w", root, walkErr)
	}

	stats.BytesHashed = s.bytesHashed.Load()
	stats.Skipped = s.skipped.Load()
	stats.Ignored = s.ignored.Load()
	stats.CacheHits = s.cacheHits.Load()
	stats.CacheMisses = s.cacheMisses.Load()
	stats.Elapsed = time.Since(start)

	s.errorsMu.Lock()
	errs := s.errors
	s.errorsMu.Unlock()
	sort.Slice(errs, func(i, j int) bool { return errs[i].Path < errs[j].Path })

	res := &Result{
		Root:        root,
		Algorithm:   s.opts.Algorithm,
		Tree:        tree,
		Stats:       stats,
		Errors:      errs,
		Interrupted: ctx.Err() != nil,
	}

	log.Info("scan finished", "root", root, "files", stats.Files, "dirs", stats.Dirs,
		"errors", len(errs), "cache_hits", stats.CacheHits, "interrupted", res.Interrupted,
		"elapsed", stats.Elapsed)

	return res, nil
}

// collect is the only writer to tree.
func (s *Scanner) collect(tree *snapshot.Contents, stats *types.ScanStats, results <-chan entry) {
	for e := range results {
		if e.dir {
			tree.AddDir(e.path)
			stats.Dirs++
			continue
		}
		tree.AddFile(e.path, e.digest)
		stats.Files++
		stats.Bytes += e.size
	}
}

func (s *Scanner) walk(ctx context.Context, jobs chan<- fileJob, results chan<- entry) error {
	conf := fastwalk.Config{
		Follow:     s.opts.FollowSymlinks,
		NumWorkers: s.opts.DirWorkers,
	}

	err := fastwalk.Walk(&conf, s.root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		rel := s.relative(path)
		if len(rel) == 0 {
			// The root itself.
			return err
		}

		if err != nil {
			s.addError(path, err)
			s.skipped.Add(1)
			return nil
		}

		isDir := d.IsDir()
		mode := d.Type()
		var info fs.FileInfo

		if mode&fs.ModeSymlink != 0 {
			if !s.opts.FollowSymlinks {
				s.skipped.Add(1)
				return nil
			}
			info, err = os.Stat(path)
			if err != nil {
				s.addError(path, err)
				s.skipped.Add(1)
				return nil
			}
			isDir = info.IsDir()
			mode = info.Mode().Type()
		}

		if s.underIgnoredLink(rel) {
			return nil
		}

		if s.opts.Ignore.Match(rel, isDir) {
			s.ignored.Add(1)
			if !isDir {
				return nil
			}
			if d.Type()&fs.ModeSymlink != 0 {
				// fastwalk follows the link after we return, so its
				// children are filtered by prefix instead.
				s.ignoreLink(rel)
				return nil
			}
			return fastwalk.SkipDir
		}

		if isDir {
			s.dirsScanned.Add(1)
			s.currentPath.Store(path)
			s.reportProgress()
			return send(ctx, results, entry{path: rel, dir: true})
		}

		if !mode.IsRegular() {
			s.skipped.Add(1)
			return nil
		}

		if info == nil {
			info, err = d.Info()
			if err != nil {
				s.addError(path, err)
				s.skipped.Add(1)
				return nil
			}
		}

		return send(ctx, jobs, fileJob{
			abs:   path,
			rel:   rel,
			size:  info.Size(),
			mtime: info.ModTime().UnixNano(),
		})
	})

	if err != nil && errors.Is(err, ctx.Err()) {
		return nil
	}
	return err
}

// send blocks until v is queued or ctx is done.
func send[T any](ctx context.Context, ch chan<- T, v T) error {
	select {
	case ch <- v:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// relative splits path below the scan root into components.
func (s *Scanner) relative(path string) []string {
	rel := strings.TrimPrefix(path, s.root)
	return snapshot.SplitPath(filepath.ToSlash(rel))
}

func (s *Scanner) ignoreLink(rel []string) {
	s.ignoredLinksMu.Lock()
	s.ignoredLinks = append(s.ignoredLinks, strings.Join(rel, "/")+"/")
	s.ignoredLinksMu.Unlock()
}

func (s *Scanner) underIgnoredLink(rel []string) bool {
	if !s.opts.FollowSymlinks {
		return false
	}

	s.ignoredLinksMu.RLock()
	defer s.ignoredLinksMu.RUnlock()
	if len(s.ignoredLinks) == 0 {
		return false
	}

	joined := strings.Join(rel, "/")
	for _, prefix := range s.ignoredLinks {
		if strings.HasPrefix(joined, prefix) {
			return true
		}
	}
	return false
}

// flushCache writes fresh digests even when the scan was interrupted.
func (s *Scanner) flushCache() {
	if s.opts.Cache == nil {
		return
	}

	s.freshMu.Lock()
	fresh := s.fresh
	s.freshMu.Unlock()

	if err := s.opts.Cache.Update(s.root, fresh); err != nil {
		logging.Get("scanner").Warn("cache update failed", "root", s.root, "error", err)
	}
}

// validateRoot resolves the root path to absolute and verifies it is a
// directory.
func (s *Scanner) validateRoot() (string, error) {
	root, err := filepath.Abs(s.opts.Root)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", s.opts.Root, err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s: %w", root, ErrNotDirectory)
	}

	return root, nil
}

// addError records a skipped entry.
func (s *Scanner) addError(path string, err error) {
	logging.Get("scanner").Warn("skipping entry", "path", path, "error", err)

	s.errorsMu.Lock()
	s.errors = append(s.errors, types.ScanError{
		Path:  path,
		Error: err.Error(),
	})
	s.errorsMu.Unlock()
}

// reportProgress calls the progress callback, at most every 10ms.
func (s *Scanner) reportProgress() {
	if s.opts.OnProgress == nil {
		return
	}

	now := time.Now().UnixMilli()
	last := s.lastProgress.Load()
	if now-last < 10 {
		return
	}
	if !s.lastProgress.CompareAndSwap(last, now) {
		return
	}

	s.sendProgress()
}

// reportProgressForce bypasses the throttle for start and end of scan.
func (s *Scanner) reportProgressForce() {
	if s.opts.OnProgress == nil {
		return
	}
	s.lastProgress.Store(time.Now().UnixMilli())
	s.sendProgress()
}

func (s *Scanner) sendProgress() {
	currentPath, _ := s.currentPath.Load().(string)

	s.opts.OnProgress(types.ScanProgress{
		DirsScanned:  s.dirsScanned.Load(),
		FilesHashed:  s.filesHashed.Load(),
		BytesHashed:  s.bytesHashed.Load(),
		CacheHits:    s.cacheHits.Load(),
		CurrentPath:  currentPath,
		WalkComplete: s.walkComplete.Load(),
	})
}
