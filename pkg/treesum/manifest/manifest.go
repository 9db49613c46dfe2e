package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/renameio"
	"github.com/google/uuid"

	"github.com/jamesainslie/treesum/pkg/treesum/snapshot"
	"github.com/jamesainslie/treesum/pkg/treesum/types"
)

var (
	// ErrNotFound is returned when no entry matches an ID.
	ErrNotFound = errors.New("history entry not found")

	// ErrAmbiguous is returned when an ID prefix matches several entries.
	ErrAmbiguous = errors.New("history entry ID is ambiguous")
)

// fileTimeFormat sorts lexically in time order.
const fileTimeFormat = "20060102T150405.000000000Z"

// Manifest stores snapshot history in a directory.
type Manifest struct {
	dir string
	mu  sync.Mutex
}

// New creates a Manifest for dir.
// The directory is not created until EnsureDir is called.
func New(dir string) (*Manifest, error) {
	if dir == "" {
		return nil, errors.New("history directory cannot be empty")
	}
	return &Manifest{dir: dir}, nil
}

// Dir returns the history directory.
func (m *Manifest) Dir() string {
	return m.dir
}

// EnsureDir creates the history directory if it does not exist.
func (m *Manifest) EnsureDir() error {
	return os.MkdirAll(m.dir, 0o755)
}

// Record saves a scan and returns the created entry.
func (m *Manifest) Record(root, algorithm string, tree *snapshot.Contents, stats types.ScanStats, errs []types.ScanError, interrupted bool) (*Entry, error) {
	entry := &Entry{
		ID:          uuid.NewString(),
		Timestamp:   time.Now().UTC(),
		Root:        root,
		Algorithm:   algorithm,
		Stats:       stats,
		Errors:      errs,
		Interrupted: interrupted,
		Tree:        tree,
	}

	if err := m.Save(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Save writes entry atomically. Entries without an ID or timestamp get one.
func (m *Manifest) Save(entry *Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling history entry: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.EnsureDir(); err != nil {
		return fmt.Errorf("creating history directory: %w", err)
	}
	if err := renameio.WriteFile(filepath.Join(m.dir, filename(entry)), data, 0o644); err != nil {
		return fmt.Errorf("writing history entry: %w", err)
	}
	return nil
}

func filename(e *Entry) string {
	return e.Timestamp.UTC().Format(fileTimeFormat) + "_" + e.ID + ".json"
}

// List returns entries newest first, without their trees.
// If limit is 0 or negative, all entries are returned. Unreadable files
// are skipped.
func (m *Manifest) List(limit int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	names, err := m.files()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(m.dir, name))
		if err != nil {
			continue
		}
		var h header
		if err := json.Unmarshal(data, &h); err != nil {
			continue
		}
		entries = append(entries, h.entry())
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Get loads the entry whose ID equals id or starts with it.
func (m *Manifest) Get(id string) (*Entry, error) {
	if id == "" {
		return nil, errors.New("entry ID cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	names, err := m.files()
	if err != nil {
		return nil, err
	}

	var match string
	var candidates []string
	for _, name := range names {
		fileID := idFromFilename(name)
		if fileID == id {
			match = name
			break
		}
		if strings.HasPrefix(fileID, id) {
			candidates = append(candidates, name)
		}
	}
	if match == "" {
		switch len(candidates) {
		case 0:
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		case 1:
			match = candidates[0]
		default:
			return nil, fmt.Errorf("%w: %s", ErrAmbiguous, id)
		}
	}

	data, err := os.ReadFile(filepath.Join(m.dir, match))
	if err != nil {
		return nil, fmt.Errorf("reading history entry: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("decoding history entry %s: %w", match, err)
	}
	if entry.Tree == nil {
		entry.Tree = snapshot.New()
	}
	return &entry, nil
}

// Cleanup removes entries last written more than retentionDays ago and
// returns how many were removed. A retention of zero or less keeps
// everything.
func (m *Manifest) Cleanup(retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	names, err := m.files()
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	removed := 0
	for _, name := range names {
		path := filepath.Join(m.dir, name)
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err != nil {
				continue
			}
			removed++
		}
	}
	return removed, nil
}

// files lists entry file names. A missing directory has no entries.
func (m *Manifest) files() ([]string, error) {
	dirEntries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading history directory: %w", err)
	}

	var names []string
	for _, d := range dirEntries {
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			continue
		}
		names = append(names, d.Name())
	}
	return names, nil
}

func idFromFilename(name string) string {
	name = strings.TrimSuffix(name, ".json")
	if i := strings.IndexByte(name, '_'); i >= 0 {
		return name[i+1:]
	}
	return name
}
