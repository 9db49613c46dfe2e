package scanner

import (
	"context"
	"strings"

	"github.com/jamesainslie/treesum/pkg/treesum/cache"
	"github.com/jamesainslie/treesum/pkg/treesum/digest"
)

// hashWorker digests queued files until jobs is closed. After ctx is
// cancelled it keeps draining jobs without reading them so the walk never
// blocks on a full queue.
func (s *Scanner) hashWorker(ctx context.Context, hasher *digest.Hasher, jobs <-chan fileJob, results chan<- entry) {
	for job := range jobs {
		if ctx.Err() != nil {
			continue
		}

		d, err := s.digestFile(hasher, job)
		if err != nil {
			s.addError(job.abs, err)
			s.skipped.Add(1)
			continue
		}

		s.filesHashed.Add(1)
		s.currentPath.Store(job.abs)
		s.reportProgress()

		// results is only closed after every worker returns.
		results <- entry{path: job.rel, size: job.size, digest: d}
	}
}

// digestFile returns the cached digest when size, mtime and algorithm
// still match, and otherwise reads the file.
func (s *Scanner) digestFile(hasher *digest.Hasher, job fileJob) (digest.Digest, error) {
	key := strings.Join(job.rel, "/")

	if s.opts.Cache != nil {
		if d, ok := s.opts.Cache.Lookup(s.root, key, job.size, job.mtime, s.opts.Algorithm); ok {
			s.cacheHits.Add(1)
			return d, nil
		}
		s.cacheMisses.Add(1)
	}

	d, err := hasher.HashFile(job.abs)
	if err != nil {
		return nil, err
	}
	s.bytesHashed.Add(job.size)

	if s.opts.Cache != nil {
		s.freshMu.Lock()
		s.fresh[key] = &cache.Entry{
			Algorithm: s.opts.Algorithm.String(),
			Size:      job.size,
			Mtime:     job.mtime,
			Digest:    d,
		}
		s.freshMu.Unlock()
	}

	return d, nil
}
