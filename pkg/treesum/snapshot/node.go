// Package snapshot holds the in-memory tree of a directory walk: every
// regular file is a Leaf carrying its content digest, every directory is a
// Directory holding its children by name.
//
// The tree is assembled by a path-trie insertion engine (Contents.AddFile and
// Contents.AddDir) that accepts entries in any order. When entries collide
// the engine resolves them as follows:
//
//   - inserting below an existing Directory recurses into it and keeps what
//     is already there;
//   - inserting below a Leaf replaces that Leaf with a fresh directory chain;
//   - a directory marker for a name that already exists is a no-op;
//   - a Leaf for a name that already exists overwrites it, Directory or not.
//
// Serialization is untagged: a Leaf is written as its hex digest string and a
// Directory as a mapping of name to child. Decoding infers the variant from
// the shape of the value.
//
// A tree is not safe for concurrent mutation. Feed it from a single
// goroutine.
package snapshot

import (
	"github.com/jamesainslie/treesum/pkg/treesum/digest"
)

// Kind identifies which variant a Node holds.
type Kind uint8

// Node variants.
const (
	KindLeaf Kind = iota + 1
	KindDirectory
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindDirectory:
		return "directory"
	default:
		return "invalid"
	}
}

// Node is either a Leaf holding a file digest or a Directory holding
// Contents. Exactly one payload is set.
type Node struct {
	kind     Kind
	digest   digest.Digest
	contents *Contents
}

// NewLeaf returns a Leaf node for a file digest.
func NewLeaf(d digest.Digest) *Node {
	return &Node{kind: KindLeaf, digest: d}
}

// NewDirectory returns a Directory node. A nil c yields an empty directory.
func NewDirectory(c *Contents) *Node {
	if c == nil {
		c = New()
	}
	return &Node{kind: KindDirectory, contents: c}
}

// Kind returns the node variant.
func (n *Node) Kind() Kind {
	return n.kind
}

// IsLeaf reports whether n is a file digest.
func (n *Node) IsLeaf() bool {
	return n != nil && n.kind == KindLeaf
}

// IsDir reports whether n is a directory.
func (n *Node) IsDir() bool {
	return n != nil && n.kind == KindDirectory
}

// Digest returns the file digest, or nil for a directory.
func (n *Node) Digest() digest.Digest {
	return n.digest
}

// Contents returns the directory children, or nil for a leaf.
func (n *Node) Contents() *Contents {
	return n.contents
}

// Equal reports whether two nodes are structurally identical.
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	if n.kind != other.kind {
		return false
	}
	if n.kind == KindLeaf {
		return n.digest.Equal(other.digest)
	}
	return n.contents.Equal(other.contents)
}
