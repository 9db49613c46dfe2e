// Package config provides configuration management for treesum.
package config

// Default configuration values.
const (
	// DefaultAlgorithm is the digest algorithm used when none is configured.
	DefaultAlgorithm = "blake3"

	// DefaultOutput is the default output format.
	DefaultOutput = "yaml"

	// DefaultPath is the directory snapshotted when none is given.
	DefaultPath = "."

	// DefaultRetentionDays is how long saved snapshots are kept.
	DefaultRetentionDays = 30

	// DefaultDebounce is how long watch mode waits for filesystem activity
	// to settle before taking a new snapshot.
	DefaultDebounce = "500ms"

	// Worker counts of zero are sized from the machine by the tuner.
	DefaultDirWorkers  = 0
	DefaultFileWorkers = 0
)

// DefaultExclusions are the exclude globs applied when none are configured.
var DefaultExclusions = []string{}
