//go:build !linux && !darwin

package tuner

import "runtime"

// Detect reports CPU count from the runtime and assumes 8 GiB of RAM.
func Detect() (SystemResources, error) {
	return SystemResources{
		CPUCores:     runtime.NumCPU(),
		TotalRAM:     defaultTotalRAM,
		AvailableRAM: defaultTotalRAM / 2,
	}, nil
}
