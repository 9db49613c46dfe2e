package tuner

// Worker configuration limits.
const (
	maxWorkers = 64

	// Walking is metadata bound and benefits from parallelism even on
	// small machines.
	minDirWorkers = 4
	maxDirWorkers = 32

	minFileWorkers = 2

	minQueueSize = 64
	maxQueueSize = 16384
)

// Memory-based queue sizing constants.
const (
	// bytesPerQueueEntry estimates one queued path plus its metadata.
	bytesPerQueueEntry = 512

	// queueMemoryFraction is the share of available RAM spent on queues.
	queueMemoryFraction = 0.01
)

// OptimalConfig holds worker and queue sizes for one scan.
type OptimalConfig struct {
	// DirWorkers is the number of concurrent directory readers.
	DirWorkers int

	// FileWorkers is the number of hashing workers. Each owns one hasher
	// and its read buffer.
	FileWorkers int

	// QueueSize bounds the file job and result channels.
	QueueSize int
}

// Calculate returns a configuration for the given resources.
//
//   - DirWorkers: NumCPU clamped to [4, 32]
//   - FileWorkers: NumCPU * 2, since hashing alternates between reading
//     and computing; capped at 64
//   - QueueSize: a small fraction of available RAM
func Calculate(resources SystemResources) OptimalConfig {
	dirWorkers := max(resources.CPUCores, minDirWorkers)
	dirWorkers = min(dirWorkers, maxDirWorkers)

	fileWorkers := max(resources.CPUCores*2, minFileWorkers)
	fileWorkers = min(fileWorkers, maxWorkers)

	return OptimalConfig{
		DirWorkers:  dirWorkers,
		FileWorkers: fileWorkers,
		QueueSize:   calculateQueueSize(resources.AvailableRAM),
	}
}

// CalculateWithOverrides applies user overrides to the calculated config.
// Overrides of zero or less keep the calculated value; positive overrides
// are capped at 64.
func CalculateWithOverrides(resources SystemResources, dirOverride, fileOverride int) OptimalConfig {
	cfg := Calculate(resources)

	if dirOverride > 0 {
		cfg.DirWorkers = min(dirOverride, maxWorkers)
	}
	if fileOverride > 0 {
		cfg.FileWorkers = min(fileOverride, maxWorkers)
	}

	return cfg
}

// Auto detects resources and applies overrides. Detection failures fall
// back to the partial resources Detect returned.
func Auto(dirOverride, fileOverride int) OptimalConfig {
	resources, _ := Detect()
	return CalculateWithOverrides(resources, dirOverride, fileOverride)
}

func calculateQueueSize(availableRAM int64) int {
	entries := int(float64(availableRAM) * queueMemoryFraction / bytesPerQueueEntry)
	entries = max(entries, minQueueSize)
	return min(entries, maxQueueSize)
}
