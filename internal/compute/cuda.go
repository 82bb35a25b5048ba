//go:build cuda

package compute

/*
#cgo CFLAGS: -I/opt/cuda/include
#cgo LDFLAGS: -L/opt/cuda/lib64 -L${SRCDIR} -lcudart -lmobility_kernels -lstdc++
#include <stdlib.h>

typedef struct {
	double Lx, Ly, zmin, zmax;
	int mode;
	int nx, ny, nz;
	double w, w_d, alpha, alpha_d, beta, beta_d;
	double tolerance;
	double viscosity, hydrodynamicRadius;
} dp_params;

extern int cuda_device_count();
extern const char* cuda_device_name_get();
extern int nbody_rpy_batched(const double* pos, const double* forces, double* result,
	int batches, int n, double selfMobility, double radius, int algorithm);

extern void* dpstokes_create();
extern int dpstokes_initialize(void* h, const dp_params* p, int n);
extern int dpstokes_set_positions(void* h, const double* pos);
extern int dpstokes_mdot(void* h, const double* forces, const double* torques, double* linear, double* angular);
extern void dpstokes_clear(void* h);
*/
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/san-kum/mobility/internal/dpstokes"
	"github.com/san-kum/mobility/internal/nbody"
)

type CUDABackend struct {
	available  bool
	deviceName string
}

func NewCUDABackend() *CUDABackend {
	count := int(C.cuda_device_count())
	name := ""
	if count > 0 {
		name = C.GoString(C.cuda_device_name_get())
	}
	return &CUDABackend{
		available:  count > 0,
		deviceName: name,
	}
}

func (c *CUDABackend) Name() string {
	if c.available {
		return "cuda (" + c.deviceName + ")"
	}
	return "cuda (not available)"
}

func (c *CUDABackend) Available() bool { return c.available }
func (c *CUDABackend) Cleanup()        {}

func (c *CUDABackend) Compute(positions, forces, result []float64, batches, n int, selfMobility, radius float64, algo nbody.Algorithm) error {
	if !c.available {
		return fmt.Errorf("%w: %s", ErrUnavailable, c.Name())
	}
	if n == 0 || batches == 0 {
		return nil
	}
	rc := C.nbody_rpy_batched(
		(*C.double)(unsafe.Pointer(&positions[0])),
		(*C.double)(unsafe.Pointer(&forces[0])),
		(*C.double)(unsafe.Pointer(&result[0])),
		C.int(batches),
		C.int(n),
		C.double(selfMobility),
		C.double(radius),
		C.int(algo),
	)
	if rc != 0 {
		return fmt.Errorf("compute: nbody kernel failed with code %d", int(rc))
	}
	return nil
}

// gridEngine owns one native DPStokes handle.
type gridEngine struct {
	handle unsafe.Pointer
	n      int
}

func newGridEngine() (dpstokes.Engine, error) {
	if int(C.cuda_device_count()) == 0 {
		return nil, fmt.Errorf("%w: no cuda device", ErrUnavailable)
	}
	h := C.dpstokes_create()
	if h == nil {
		return nil, fmt.Errorf("compute: dpstokes_create failed")
	}
	return &gridEngine{handle: h}, nil
}

func (g *gridEngine) Initialize(d dpstokes.Discretization, n int) error {
	p := C.dp_params{
		Lx: C.double(d.Lx), Ly: C.double(d.Ly),
		zmin: C.double(d.Zmin), zmax: C.double(d.Zmax),
		mode: C.int(d.Mode),
		nx:   C.int(d.Nx), ny: C.int(d.Ny), nz: C.int(d.Nz),
		w: C.double(d.W), w_d: C.double(d.WD),
		alpha: C.double(d.Alpha), alpha_d: C.double(d.AlphaD),
		beta: C.double(d.Beta), beta_d: C.double(d.BetaD),
		tolerance:          C.double(d.Tolerance),
		viscosity:          C.double(d.Viscosity),
		hydrodynamicRadius: C.double(d.HydrodynamicRadius),
	}
	if rc := C.dpstokes_initialize(g.handle, &p, C.int(n)); rc != 0 {
		return fmt.Errorf("compute: dpstokes_initialize failed with code %d", int(rc))
	}
	g.n = n
	return nil
}

func (g *gridEngine) SetPositions(positions []float64) error {
	if len(positions) != 3*g.n {
		return fmt.Errorf("compute: dpstokes engine holds %d particles, got %d positions", g.n, len(positions))
	}
	if g.n == 0 {
		return nil
	}
	if rc := C.dpstokes_set_positions(g.handle, (*C.double)(unsafe.Pointer(&positions[0]))); rc != 0 {
		return fmt.Errorf("compute: dpstokes_set_positions failed with code %d", int(rc))
	}
	return nil
}

func (g *gridEngine) NumberParticles() int { return g.n }

func (g *gridEngine) Mdot(forces, torques, linear, angular []float64) error {
	rc := C.dpstokes_mdot(g.handle, ptr(forces), ptr(torques), ptr(linear), ptr(angular))
	if rc != 0 {
		return fmt.Errorf("compute: dpstokes_mdot failed with code %d", int(rc))
	}
	return nil
}

func (g *gridEngine) Clear() error {
	if g.handle != nil {
		C.dpstokes_clear(g.handle)
		g.handle = nil
	}
	return nil
}

func ptr(s []float64) *C.double {
	if len(s) == 0 {
		return nil
	}
	return (*C.double)(unsafe.Pointer(&s[0]))
}
