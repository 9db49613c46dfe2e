package tuner

import (
	"runtime"
	"testing"
)

func TestDetect(t *testing.T) {
	resources, err := Detect()
	if err != nil {
		t.Fatalf("Detect() returned error: %v", err)
	}

	if resources.CPUCores != runtime.NumCPU() {
		t.Errorf("CPUCores = %d, want %d", resources.CPUCores, runtime.NumCPU())
	}
	if resources.TotalRAM <= 0 {
		t.Errorf("TotalRAM = %d, want > 0", resources.TotalRAM)
	}
	if resources.AvailableRAM <= 0 || resources.AvailableRAM > resources.TotalRAM {
		t.Errorf("AvailableRAM = %d, want in (0, %d]", resources.AvailableRAM, resources.TotalRAM)
	}
}

func TestCalculate(t *testing.T) {
	tests := []struct {
		name        string
		cores       int
		ram         int64
		wantDir     int
		wantFile    int
		wantQueueLo int
		wantQueueHi int
	}{
		{name: "single core", cores: 1, ram: 1 << 30, wantDir: 4, wantFile: 2, wantQueueLo: minQueueSize, wantQueueHi: maxQueueSize},
		{name: "eight cores", cores: 8, ram: 16 << 30, wantDir: 8, wantFile: 16, wantQueueLo: minQueueSize, wantQueueHi: maxQueueSize},
		{name: "huge machine", cores: 128, ram: 1 << 40, wantDir: 32, wantFile: 64, wantQueueLo: maxQueueSize, wantQueueHi: maxQueueSize},
		{name: "no memory info", cores: 4, ram: 0, wantDir: 4, wantFile: 8, wantQueueLo: minQueueSize, wantQueueHi: minQueueSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Calculate(SystemResources{CPUCores: tt.cores, TotalRAM: tt.ram, AvailableRAM: tt.ram})
			if got.DirWorkers != tt.wantDir {
				t.Errorf("DirWorkers = %d, want %d", got.DirWorkers, tt.wantDir)
			}
			if got.FileWorkers != tt.wantFile {
				t.Errorf("FileWorkers = %d, want %d", got.FileWorkers, tt.wantFile)
			}
			if got.QueueSize < tt.wantQueueLo || got.QueueSize > tt.wantQueueHi {
				t.Errorf("QueueSize = %d, want in [%d, %d]", got.QueueSize, tt.wantQueueLo, tt.wantQueueHi)
			}
		})
	}
}

func TestCalculateWithOverrides(t *testing.T) {
	res := SystemResources{CPUCores: 8, AvailableRAM: 1 << 30}

	got := CalculateWithOverrides(res, 0, 3)
	if got.DirWorkers != 8 || got.FileWorkers != 3 {
		t.Errorf("got dir=%d file=%d, want dir=8 file=3", got.DirWorkers, got.FileWorkers)
	}

	got = CalculateWithOverrides(res, 500, -1)
	if got.DirWorkers != maxWorkers || got.FileWorkers != 16 {
		t.Errorf("got dir=%d file=%d, want dir=%d file=16", got.DirWorkers, got.FileWorkers, maxWorkers)
	}
}
