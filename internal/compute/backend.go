package compute

import (
	"errors"
	"fmt"

	"github.com/san-kum/mobility/internal/dpstokes"
	"github.com/san-kum/mobility/internal/nbody"
)

// ErrUnavailable is returned when a backend was not compiled in or has no device.
var ErrUnavailable = errors.New("compute: backend not available")

// PairwiseBackend is a batched RPY engine that may hold device resources.
type PairwiseBackend interface {
	nbody.Engine
	Cleanup()
}

var (
	_ PairwiseBackend = (*CPUBackend)(nil)
	_ PairwiseBackend = (*CUDABackend)(nil)
)

// AutoSelectBackend returns the CUDA backend when a device is present and the
// CPU reference backend otherwise.
func AutoSelectBackend() PairwiseBackend {
	cuda := NewCUDABackend()
	if cuda.Available() {
		return cuda
	}
	return NewCPUBackend()
}

// SelectBackend resolves a backend by name: "auto", "cpu" or "cuda".
func SelectBackend(name string) (PairwiseBackend, error) {
	switch name {
	case "", "auto":
		return AutoSelectBackend(), nil
	case "cpu":
		return NewCPUBackend(), nil
	case "cuda", "gpu":
		cuda := NewCUDABackend()
		if !cuda.Available() {
			return nil, fmt.Errorf("%w: %s", ErrUnavailable, cuda.Name())
		}
		return cuda, nil
	}
	return nil, fmt.Errorf("compute: unknown backend %q", name)
}

// GridEngineFactory returns a factory for the doubly periodic grid engine.
// Every call of the factory owns a fresh engine handle.
func GridEngineFactory() dpstokes.EngineFactory {
	return newGridEngine
}
