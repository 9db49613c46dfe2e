package snapshot

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/jamesainslie/treesum/pkg/treesum/digest"
)

// Contents maps single path components to child nodes.
// The zero value is an empty directory ready for use.
type Contents struct {
	items map[string]*Node
}

// New returns an empty root.
func New() *Contents {
	return &Contents{items: make(map[string]*Node)}
}

// AddFile records a file digest at path, creating intermediate directories.
// An empty path is a no-op. Components must not contain a path separator.
func (c *Contents) AddFile(path []string, d digest.Digest) {
	c.add(path, NewLeaf(d))
}

// AddDir records that a directory exists at path. Marking a path that is
// already present leaves it untouched. An empty path is a no-op.
func (c *Contents) AddDir(path []string) {
	c.add(path, NewDirectory(nil))
}

// AddFilePath is AddFile for an OS-relative path such as "a/b/c.txt".
func (c *Contents) AddFilePath(rel string, d digest.Digest) {
	c.AddFile(SplitPath(rel), d)
}

// AddDirPath is AddDir for an OS-relative path.
func (c *Contents) AddDirPath(rel string) {
	c.AddDir(SplitPath(rel))
}

func (c *Contents) add(path []string, item *Node) {
	if len(path) == 0 {
		return
	}
	if c.items == nil {
		c.items = make(map[string]*Node)
	}

	key, rest := path[0], path[1:]

	if len(rest) > 0 {
		if existing, ok := c.items[key]; ok && existing.IsDir() {
			existing.contents.add(rest, item)
			return
		}
		c.items[key] = chain(rest, item)
		return
	}

	if item.IsDir() {
		if _, ok := c.items[key]; ok {
			return
		}
	}
	c.items[key] = item
}

// chain wraps item in one fresh directory per component of path, outermost
// first, and returns the outermost directory.
func chain(path []string, item *Node) *Node {
	n := item
	for i := len(path) - 1; i >= 0; i-- {
		dir := New()
		dir.items[path[i]] = n
		n = NewDirectory(dir)
	}
	return n
}

// SplitPath breaks an OS-relative path into components, dropping empty and
// "." components.
func SplitPath(rel string) []string {
	parts := strings.Split(filepath.ToSlash(rel), "/")
	out := parts[:0]
	for _, p := range parts {
		if p == "" || p == "." {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Len returns the number of direct children.
func (c *Contents) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}

// Child returns the direct child with the given name.
func (c *Contents) Child(name string) (*Node, bool) {
	if c == nil {
		return nil, false
	}
	n, ok := c.items[name]
	return n, ok
}

// Get resolves a component path. An empty path does not resolve.
func (c *Contents) Get(path []string) (*Node, bool) {
	cur := c
	for i, name := range path {
		n, ok := cur.Child(name)
		if !ok {
			return nil, false
		}
		if i == len(path)-1 {
			return n, true
		}
		if !n.IsDir() {
			return nil, false
		}
		cur = n.contents
	}
	return nil, false
}

// Names returns the direct child names in lexical order.
func (c *Contents) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.items))
	for name := range c.items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WalkFunc is called for every node during Walk with the node's component
// path relative to the walked root. Returning a non-nil error stops the walk.
type WalkFunc func(path []string, n *Node) error

// Walk visits every node depth-first in lexical order, parents before
// children.
func (c *Contents) Walk(fn WalkFunc) error {
	return c.walk(nil, fn)
}

func (c *Contents) walk(prefix []string, fn WalkFunc) error {
	for _, name := range c.Names() {
		n := c.items[name]
		path := make([]string, len(prefix)+1)
		copy(path, prefix)
		path[len(prefix)] = name

		if err := fn(path, n); err != nil {
			return err
		}
		if n.IsDir() {
			if err := n.contents.walk(path, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// Stats summarizes a tree.
type Stats struct {
	Files int `json:"files" yaml:"files"`
	Dirs  int `json:"dirs" yaml:"dirs"`
}

// Stats counts every leaf and directory below c.
func (c *Contents) Stats() Stats {
	var s Stats
	_ = c.Walk(func(_ []string, n *Node) error {
		if n.IsDir() {
			s.Dirs++
		} else {
			s.Files++
		}
		return nil
	})
	return s
}

// Equal reports whether two trees hold the same names, shapes and digests.
func (c *Contents) Equal(other *Contents) bool {
	if c.Len() != other.Len() {
		return false
	}
	if c == nil || other == nil {
		return true
	}
	for name, n := range c.items {
		o, ok := other.items[name]
		if !ok || !n.Equal(o) {
			return false
		}
	}
	return true
}
