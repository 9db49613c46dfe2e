// Package tuner sizes the scanner's worker pools and queues from the
// machine it runs on.
package tuner

// SystemResources contains detected system resources.
type SystemResources struct {
	// CPUCores is the number of logical CPU cores available.
	CPUCores int

	// TotalRAM is the total physical RAM in bytes.
	TotalRAM int64

	// AvailableRAM is the free RAM in bytes, possibly estimated.
	AvailableRAM int64
}

// defaultTotalRAM is assumed when memory detection is unavailable.
const defaultTotalRAM = 8 * 1024 * 1024 * 1024
