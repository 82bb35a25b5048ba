//go:build !cuda

package compute

import (
	"fmt"

	"github.com/san-kum/mobility/internal/dpstokes"
	"github.com/san-kum/mobility/internal/nbody"
)

type CUDABackend struct{}

func NewCUDABackend() *CUDABackend {
	return &CUDABackend{}
}

func (c *CUDABackend) Name() string    { return "cuda (not available)" }
func (c *CUDABackend) Available() bool { return false }
func (c *CUDABackend) Cleanup()        {}

func (c *CUDABackend) Compute(positions, forces, result []float64, batches, n int, selfMobility, radius float64, algo nbody.Algorithm) error {
	return fmt.Errorf("%w: %s", ErrUnavailable, c.Name())
}

func newGridEngine() (dpstokes.Engine, error) {
	return nil, fmt.Errorf("%w: doubly periodic grid engine requires -tags cuda", ErrUnavailable)
}
