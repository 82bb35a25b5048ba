package config

import (
	"sort"

	"github.com/san-kum/mobility/internal/dpstokes"
	"github.com/san-kum/mobility/internal/mobility"
	"github.com/san-kum/mobility/internal/nbody"
)

func params(n int, radius float64) mobility.Parameters {
	return mobility.Parameters{
		NumberParticles:    n,
		Viscosity:          DefaultViscosity,
		Temperature:        DefaultTemperature,
		HydrodynamicRadius: []float64{radius},
	}
}

var doublyPeriodic = mobility.Configuration{
	PeriodicityX: mobility.Periodic,
	PeriodicityY: mobility.Periodic,
	Device:       mobility.GPU,
}

func dpConfig(z mobility.Periodicity) mobility.Configuration {
	c := doublyPeriodic
	c.PeriodicityZ = z
	return c
}

var Presets = map[string]map[string]*Config{
	"self": {
		"dilute": {
			Solver: "self", Parameters: params(128, 1),
			Run: RunConfig{Dt: 0.01, Steps: 500, SampleEvery: 5, Box: 40},
		},
		"sediment": {
			Solver: "self", Parameters: params(64, 1),
			Run: RunConfig{Dt: 0.01, Steps: 300, SampleEvery: 3, Box: 20, Force: [3]float64{0, 0, -1}},
		},
	},
	"nbody": {
		"pair": {
			Solver: "nbody", Backend: "auto",
			Configuration: mobility.Configuration{Device: mobility.GPU},
			Parameters:    params(2, 1),
			NBody:         NBodyConfig{Algorithm: nbody.Naive},
			Run:           RunConfig{Dt: 0.01, Steps: 200, SampleEvery: 2, Box: 6},
		},
		"suspension": {
			Solver: "nbody", Backend: "auto",
			Configuration: mobility.Configuration{Device: mobility.GPU},
			Parameters:    params(256, 1),
			NBody:         NBodyConfig{Algorithm: nbody.Advise},
			Run:           RunConfig{Dt: 0.005, Steps: 400, SampleEvery: 4, Box: 30, LanczosIterations: 40},
		},
	},
	"dpstokes": {
		"wall": {
			Solver: "dpstokes", Backend: "cuda",
			Configuration: dpConfig(mobility.SingleWall),
			Parameters:    params(128, 1),
			DPStokes:      dpstokes.Geometry{Lx: 32, Ly: 32, Zmin: 0, Zmax: 16},
			Run:           RunConfig{Dt: 0.01, Steps: 300, SampleEvery: 3, Box: 32, LanczosIterations: 30},
		},
		"slit": {
			Solver: "dpstokes", Backend: "cuda",
			Configuration: dpConfig(mobility.TwoWalls),
			Parameters:    params(128, 1),
			DPStokes:      dpstokes.Geometry{Lx: 32, Ly: 32, Zmin: 0, Zmax: 8},
			Run:           RunConfig{Dt: 0.01, Steps: 300, SampleEvery: 3, Box: 32, LanczosIterations: 30},
		},
		"open": {
			Solver: "dpstokes", Backend: "cuda",
			Configuration: dpConfig(mobility.Open),
			Parameters:    params(128, 1),
			DPStokes:      dpstokes.Geometry{Lx: 32, Ly: 32, Zmin: -8, Zmax: 8, AllowChangingBoxSize: true},
			Run:           RunConfig{Dt: 0.01, Steps: 300, SampleEvery: 3, Box: 32, LanczosIterations: 30},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(solver, preset string) *Config {
	solverPresets, ok := Presets[solver]
	if !ok {
		return nil
	}
	cfg, ok := solverPresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(solver string) []string {
	solverPresets, ok := Presets[solver]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(solverPresets))
	for name := range solverPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
