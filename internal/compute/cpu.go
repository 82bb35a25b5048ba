package compute

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/san-kum/mobility/internal/nbody"
)

// CPUBackend evaluates the open boundary RPY mobility on the host.
type CPUBackend struct {
	workers int
}

func NewCPUBackend() *CPUBackend {
	return &CPUBackend{
		workers: runtime.NumCPU(),
	}
}

func (c *CPUBackend) Name() string    { return "cpu" }
func (c *CPUBackend) Available() bool { return true }
func (c *CPUBackend) Cleanup()        {}

func (c *CPUBackend) Compute(positions, forces, result []float64, batches, n int, selfMobility, radius float64, algo nbody.Algorithm) error {
	size := 3 * n * batches
	if len(positions) < size || len(forces) < size || len(result) < size {
		return fmt.Errorf("compute: buffers hold fewer than %d values", size)
	}

	for b := 0; b < batches; b++ {
		lo, hi := 3*n*b, 3*n*(b+1)
		pos, f, out := positions[lo:hi], forces[lo:hi], result[lo:hi]

		if algo == nbody.Naive || n < 16 {
			rpyRows(pos, f, out, 0, n, selfMobility, radius)
			continue
		}
		c.rpyParallel(pos, f, out, n, selfMobility, radius)
	}
	return nil
}

// rpyParallel splits rows across workers. Each row is owned by one worker,
// so no reduction is needed.
func (c *CPUBackend) rpyParallel(pos, f, out []float64, n int, m0, a float64) {
	var wg sync.WaitGroup
	chunkSize := (n + c.workers - 1) / c.workers

	for w := 0; w < c.workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			break
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			rpyRows(pos, f, out, start, end, m0, a)
		}(start, end)
	}

	wg.Wait()
}

func rpyRows(pos, f, out []float64, start, end int, m0, a float64) {
	n := len(pos) / 3
	for i := start; i < end; i++ {
		xi, yi, zi := pos[3*i], pos[3*i+1], pos[3*i+2]
		var vx, vy, vz float64

		for j := 0; j < n; j++ {
			fx, fy, fz := f[3*j], f[3*j+1], f[3*j+2]
			if i == j {
				vx += fx
				vy += fy
				vz += fz
				continue
			}

			rx := pos[3*j] - xi
			ry := pos[3*j+1] - yi
			rz := pos[3*j+2] - zi
			r := math.Sqrt(rx*rx + ry*ry + rz*rz)
			if r == 0 {
				vx += fx
				vy += fy
				vz += fz
				continue
			}

			fI, gRR := rpy(r, a)
			rx, ry, rz = rx/r, ry/r, rz/r
			proj := gRR * (rx*fx + ry*fy + rz*fz)

			vx += fI*fx + proj*rx
			vy += fI*fy + proj*ry
			vz += fI*fz + proj*rz
		}

		out[3*i] = m0 * vx
		out[3*i+1] = m0 * vy
		out[3*i+2] = m0 * vz
	}
}

// rpy returns the identity and r̂r̂ coefficients of the RPY tensor at
// distance r, relative to the self mobility. Overlapping pairs use the
// regularized form.
func rpy(r, a float64) (float64, float64) {
	if r > 2*a {
		ar := a / r
		ar3 := ar * ar * ar
		return 0.75*ar + 0.5*ar3, 0.75*ar - 1.5*ar3
	}
	return 1 - 9*r/(32*a), 3 * r / (32 * a)
}
