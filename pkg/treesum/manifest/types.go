// Package manifest keeps a history of saved snapshots on disk, one JSON
// document per scan.
package manifest

import (
	"time"

	"github.com/jamesainslie/treesum/pkg/treesum/snapshot"
	"github.com/jamesainslie/treesum/pkg/treesum/types"
)

// Entry is one recorded scan.
type Entry struct {
	ID          string            `json:"id"`
	Timestamp   time.Time         `json:"timestamp"`
	Root        string            `json:"root"`
	Algorithm   string            `json:"algorithm"`
	Stats       types.ScanStats   `json:"stats"`
	Errors      []types.ScanError `json:"errors,omitempty"`
	Interrupted bool              `json:"interrupted,omitempty"`

	// Tree is nil for entries returned by List.
	Tree *snapshot.Contents `json:"tree,omitempty"`
}

// ShortID returns the first eight characters of the ID.
func (e *Entry) ShortID() string {
	if len(e.ID) <= 8 {
		return e.ID
	}
	return e.ID[:8]
}

// header is Entry without the tree, so listing skips decoding trees.
type header struct {
	ID          string            `json:"id"`
	Timestamp   time.Time         `json:"timestamp"`
	Root        string            `json:"root"`
	Algorithm   string            `json:"algorithm"`
	Stats       types.ScanStats   `json:"stats"`
	Errors      []types.ScanError `json:"errors,omitempty"`
	Interrupted bool              `json:"interrupted,omitempty"`
}

func (h header) entry() Entry {
	return Entry{
		ID:          h.ID,
		Timestamp:   h.Timestamp,
		Root:        h.Root,
		Algorithm:   h.Algorithm,
		Stats:       h.Stats,
		Errors:      h.Errors,
		Interrupted: h.Interrupted,
	}
}
