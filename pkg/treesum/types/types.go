// Package types holds the scan bookkeeping shared by the scanner, output
// formatters and history: progress snapshots, final statistics, per-path
// errors, and byte size parsing and formatting.
package types

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Size constants for binary (IEC) units.
const (
	KiB int64 = 1024
	MiB int64 = 1024 * KiB
	GiB int64 = 1024 * MiB
	TiB int64 = 1024 * GiB
)

// ScanError pairs a path with the reason it was left out of a snapshot.
type ScanError struct {
	Path  string `json:"path" yaml:"path"`
	Error string `json:"error" yaml:"error"`
}

// ScanStats summarizes a finished scan.
type ScanStats struct {
	// Dirs is the number of directories recorded in the tree.
	Dirs int64 `json:"dirs" yaml:"dirs"`

	// Files is the number of files recorded in the tree.
	Files int64 `json:"files" yaml:"files"`

	// Bytes is the total size of recorded files.
	Bytes int64 `json:"bytes" yaml:"bytes"`

	// BytesHashed is the part of Bytes that was actually read.
	BytesHashed int64 `json:"bytes_hashed" yaml:"bytes_hashed"`

	// Skipped counts entries left out: unreadable files, symlinks and
	// special files. Ignored entries are not counted.
	Skipped int64 `json:"skipped" yaml:"skipped"`

	// Ignored counts entries removed by ignore rules.
	Ignored int64 `json:"ignored" yaml:"ignored"`

	CacheHits   int64 `json:"cache_hits" yaml:"cache_hits"`
	CacheMisses int64 `json:"cache_misses" yaml:"cache_misses"`

	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
}

// ScanProgress is a point-in-time view of a running scan.
type ScanProgress struct {
	DirsScanned  int64  `json:"dirs_scanned"`
	FilesHashed  int64  `json:"files_hashed"`
	BytesHashed  int64  `json:"bytes_hashed"`
	CacheHits    int64  `json:"cache_hits"`
	CurrentPath  string `json:"current_path"`
	WalkComplete bool   `json:"walk_complete,omitempty"`
}

var sizePattern = regexp.MustCompile(`(?i)^\s*([0-9]+(?:\.[0-9]+)?)\s*([KMGT]?)(?:i?B)?\s*$`)

// ErrInvalidSize indicates that a size string could not be parsed.
var ErrInvalidSize = errors.New("invalid size format")

// ParseSize parses sizes such as "512", "100K", "10MB" or "1.5GiB" into
// bytes. Units are binary.
func ParseSize(s string) (int64, error) {
	m := sizePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	multiplier := int64(1)
	switch strings.ToUpper(m[2]) {
	case "K":
		multiplier = KiB
	case "M":
		multiplier = MiB
	case "G":
		multiplier = GiB
	case "T":
		multiplier = TiB
	}

	return int64(value * float64(multiplier)), nil
}

// FormatSize renders bytes with binary units, e.g. "1.5 MiB".
func FormatSize(bytes int64) string {
	if bytes < 0 {
		return "-" + humanize.IBytes(uint64(-bytes))
	}
	return humanize.IBytes(uint64(bytes))
}
