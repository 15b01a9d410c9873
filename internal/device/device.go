// Package device picks the compute device used for every model load:
// the CUDA accelerator when one is visible, otherwise the CPU.
package device

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
)

// Kind is the placement target passed to every runtime.
type Kind string

const (
	CUDA Kind = "cuda"
	CPU  Kind = "cpu"
)

// Device describes the selected compute device.
type Device struct {
	Kind Kind
	// Name of the accelerator as reported by the driver, empty on CPU.
	Name string
}

// GPULayers returns the llama.cpp gpu-layer count for this device:
// everything on the accelerator, nothing on CPU.
func (d Device) GPULayers() int {
	if d.Kind == CUDA {
		return -1
	}
	return 0
}

const probeTimeout = 2 * time.Second

// Select probes for an NVIDIA accelerator and falls back to CPU. The probe
// shells out to nvidia-smi; no driver bindings are linked in.
func Select() Device {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, "nvidia-smi",
		"--query-gpu=name", "--format=csv,noheader").Output()
	if err != nil {
		return Device{Kind: CPU}
	}
	name := strings.TrimSpace(strings.SplitN(string(out), "\n", 2)[0])
	if name == "" {
		return Device{Kind: CPU}
	}
	return Device{Kind: CUDA, Name: name}
}

// Resolve honors an explicit override ("cuda"/"cpu"); anything else probes.
func Resolve(override string) Device {
	switch strings.ToLower(strings.TrimSpace(override)) {
	case "cuda":
		return Device{Kind: CUDA}
	case "cpu":
		return Device{Kind: CPU}
	default:
		return Select()
	}
}

// FreeMemoryMB reports currently available host memory. Used for /api/status
// and for the post-release baseline check in tests; 0 when unavailable.
func FreeMemoryMB() uint64 {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0
	}
	return vm.Available / (1024 * 1024)
}
