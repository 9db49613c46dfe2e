// Package ignore decides which walk entries are left out of a snapshot.
//
// Three rule sources are combined: hidden entries (names starting with a
// dot) unless explicitly included, .gitignore files found below the root,
// and user supplied exclude globs.
package ignore

import (
	"fmt"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/gobwas/glob"
)

// Options selects the active rule sources.
type Options struct {
	// Hidden includes dot-prefixed entries. They are skipped by default.
	Hidden bool

	// GitIgnore honours .gitignore files under the root.
	GitIgnore bool

	// Exclude holds glob patterns matched against the slash-separated
	// relative path and against the base name. "**" crosses directories.
	Exclude []string
}

// Matcher answers whether a relative path should be skipped.
// A nil *Matcher skips nothing. Matcher is safe for concurrent use.
type Matcher struct {
	hidden   bool
	git      gitignore.Matcher
	excludes []glob.Glob
	patterns []string
}

// New builds a Matcher for a walk rooted at root.
func New(root string, opts Options) (*Matcher, error) {
	m := &Matcher{hidden: opts.Hidden}

	for _, pattern := range opts.Exclude {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("compiling exclude pattern %q: %w", pattern, err)
		}
		m.excludes = append(m.excludes, g)
		m.patterns = append(m.patterns, pattern)
	}

	if opts.GitIgnore {
		ps, err := gitignore.ReadPatterns(osfs.New(root), nil)
		if err != nil {
			return nil, fmt.Errorf("reading gitignore patterns: %w", err)
		}
		if len(ps) > 0 {
			m.git = gitignore.NewMatcher(ps)
		}
	}

	return m, nil
}

// Match reports whether the entry at path (root-relative components) is
// ignored. isDir must be true for directories so directory-only gitignore
// rules apply.
func (m *Matcher) Match(path []string, isDir bool) bool {
	if m == nil || len(path) == 0 {
		return false
	}

	name := path[len(path)-1]
	if !m.hidden && strings.HasPrefix(name, ".") {
		return true
	}

	if m.git != nil && m.git.Match(path, isDir) {
		return true
	}

	if len(m.excludes) > 0 {
		rel := strings.Join(path, "/")
		for _, g := range m.excludes {
			if g.Match(rel) || g.Match(name) {
				return true
			}
		}
	}

	return false
}

// Patterns returns the compiled exclude patterns, for logging.
func (m *Matcher) Patterns() []string {
	if m == nil {
		return nil
	}
	return m.patterns
}

// UsesGitIgnore reports whether any gitignore rules were loaded.
func (m *Matcher) UsesGitIgnore() bool {
	return m != nil && m.git != nil
}
