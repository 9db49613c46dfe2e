// Package output renders snapshots for the terminal and for files.
//
// The package uses a registry pattern so formatters can be selected by
// name at runtime.
//
// Basic usage:
//
//	formatter, err := output.Get("yaml")
//	if err != nil {
//	    return err
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, output.FromScan(res)); err != nil {
//	    return err
//	}
//
// The yaml and json formatters emit the bare tree document and nothing
// else, so their output can be read back with ReadTree.
package output

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/jamesainslie/treesum/pkg/treesum/scanner"
	"github.com/jamesainslie/treesum/pkg/treesum/snapshot"
	"github.com/jamesainslie/treesum/pkg/treesum/types"
)

// Result is everything a formatter may show about one snapshot.
type Result struct {
	// Source is the root path that was scanned.
	Source string

	// Algorithm names the digest used for leaves.
	Algorithm string

	Tree  *snapshot.Contents
	Stats types.ScanStats

	// Errors lists entries missing from Tree.
	Errors []types.ScanError

	// Interrupted indicates the scan was cancelled before finishing.
	Interrupted bool
}

// FromScan adapts a scanner result.
func FromScan(res *scanner.Result) *Result {
	return &Result{
		Source:      res.Root,
		Algorithm:   res.Algorithm.String(),
		Tree:        res.Tree,
		Stats:       res.Stats,
		Errors:      res.Errors,
		Interrupted: res.Interrupted,
	}
}

func (r *Result) tree() *snapshot.Contents {
	if r.Tree == nil {
		return snapshot.New()
	}
	return r.Tree
}

// Formatter is the interface that all output formatters must implement.
type Formatter interface {
	// Format writes the formatted output to the buffer.
	Format(w *bytes.Buffer, r *Result) error
}

// FormatterFactory is a function that creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates a new formatter registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds a formatter factory, replacing any with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter instance by name.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown output format: %s", name)
	}
	return factory(), nil
}

// Available returns a sorted list of all registered formatter names.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter instance from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}
