package experiment

import (
	"math"

	"github.com/san-kum/mobility/internal/compute"
	"github.com/san-kum/mobility/internal/config"
	"github.com/san-kum/mobility/internal/dpstokes"
	"github.com/san-kum/mobility/internal/logging"
	"github.com/san-kum/mobility/internal/mobility"
)

// diagonalGrid stands in for the CUDA grid engine: every particle moves
// with its own Stokes drag.
type diagonalGrid struct {
	n       int
	mu      float64
	muRot   float64
	held    int
	cleared int
}

func (g *diagonalGrid) Initialize(d dpstokes.Discretization, n int) error {
	a := d.HydrodynamicRadius
	g.n = n
	g.mu = 1 / (6 * math.Pi * d.Viscosity * a)
	g.muRot = 1 / (8 * math.Pi * d.Viscosity * a * a * a)
	g.held++
	return nil
}

func (g *diagonalGrid) SetPositions([]float64) error { return nil }
func (g *diagonalGrid) NumberParticles() int         { return g.n }

func (g *diagonalGrid) Mdot(forces, torques, linear, angular []float64) error {
	for i, f := range forces {
		linear[i] = g.mu * f
	}
	for i, t := range torques {
		angular[i] = g.muRot * t
	}
	return nil
}

func (g *diagonalGrid) Clear() error {
	g.cleared++
	return nil
}

type gridLog struct {
	engines []*diagonalGrid
}

func (l *gridLog) factory() (dpstokes.Engine, error) {
	g := &diagonalGrid{}
	l.engines = append(l.engines, g)
	return g, nil
}

func testRegistry(grid *gridLog) *Registry {
	return NewRegistry(
		WithLogger(logging.NewTestLogger()),
		WithPairwiseBackend(compute.NewCPUBackend()),
		WithGridEngine(grid.factory),
	)
}

// unitRadius gives a self mobility and, at kT = 1, a diffusion coefficient of one.
var unitRadius = 1 / (6 * math.Pi)

func selfConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Solver = "self"
	cfg.Parameters = mobility.Parameters{
		NumberParticles:    4,
		Viscosity:          1,
		Temperature:        1,
		HydrodynamicRadius: []float64{unitRadius},
		Seed:               21,
	}
	return cfg
}

func nbodyConfig() *config.Config {
	cfg := selfConfig()
	cfg.Solver = "nbody"
	cfg.Configuration = mobility.Configuration{Device: mobility.GPU}
	cfg.Parameters.HydrodynamicRadius = []float64{0.5}
	cfg.Run.Box = 8
	return cfg
}

func dpstokesConfig() *config.Config {
	cfg := selfConfig()
	cfg.Solver = "dpstokes"
	cfg.Configuration = mobility.Configuration{
		PeriodicityX: mobility.Periodic,
		PeriodicityY: mobility.Periodic,
		PeriodicityZ: mobility.SingleWall,
		Device:       mobility.GPU,
	}
	cfg.Parameters.HydrodynamicRadius = []float64{1}
	cfg.DPStokes = dpstokes.Geometry{Lx: 16, Ly: 16, Zmin: 0, Zmax: 8}
	cfg.Run.Box = 16
	return cfg
}

func configFor(name string) *config.Config {
	switch name {
	case "nbody":
		return nbodyConfig()
	case "dpstokes":
		return dpstokesConfig()
	}
	return selfConfig()
}
