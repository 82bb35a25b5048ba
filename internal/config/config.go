package config

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/mobility/internal/dpstokes"
	"github.com/san-kum/mobility/internal/mobility"
	"github.com/san-kum/mobility/internal/nbody"
)

const (
	DefaultDt          = 0.01
	DefaultSteps       = 200
	DefaultSampleEvery = 1
	DefaultBox         = 20.0
	DefaultParticles   = 64
	DefaultViscosity   = 1.0
	DefaultTemperature = 1.0
	DefaultRadius      = 1.0
)

// Solvers are the names accepted in Config.Solver.
var Solvers = []string{"self", "nbody", "dpstokes"}

// Config is a Brownian-dynamics run: which solver to build, how to build it
// and how long to integrate.
type Config struct {
	Solver        string                 `yaml:"solver"`
	Backend       string                 `yaml:"backend"`
	Configuration mobility.Configuration `yaml:"configuration"`
	Parameters    mobility.Parameters    `yaml:"parameters"`
	DPStokes      dpstokes.Geometry      `yaml:"dpstokes"`
	NBody         NBodyConfig            `yaml:"nbody"`
	Run           RunConfig              `yaml:"run"`
}

type NBodyConfig struct {
	Algorithm nbody.Algorithm `yaml:"algorithm"`
}

type RunConfig struct {
	Dt    float64 `yaml:"dt"`
	Steps int     `yaml:"steps"`
	// SampleEvery records the MSD every n steps.
	SampleEvery int `yaml:"sample_every"`
	// Box is the side of the cube (or periodic cell) particles start in.
	Box float64 `yaml:"box"`
	// Force is a constant external force applied to every particle.
	Force [3]float64 `yaml:"force,flow"`
	// LanczosIterations caps the Krylov basis of the default noise.
	LanczosIterations int `yaml:"lanczos_iterations"`
}

func DefaultConfig() *Config {
	return &Config{
		Solver:  "self",
		Backend: "auto",
		Parameters: mobility.Parameters{
			NumberParticles:    DefaultParticles,
			Viscosity:          DefaultViscosity,
			Temperature:        DefaultTemperature,
			HydrodynamicRadius: []float64{DefaultRadius},
		},
		Run: RunConfig{
			Dt:          DefaultDt,
			Steps:       DefaultSteps,
			SampleEvery: DefaultSampleEvery,
			Box:         DefaultBox,
		},
	}
}

// DefaultFor returns the defaults for one solver, with the geometry and
// device that solver requires.
func DefaultFor(solver string) *Config {
	cfg := DefaultConfig()
	cfg.Solver = solver
	switch solver {
	case "nbody":
		cfg.Configuration.Device = mobility.GPU
	case "dpstokes":
		cfg.Configuration = dpConfig(mobility.SingleWall)
		cfg.DPStokes = dpstokes.Geometry{Lx: DefaultBox, Ly: DefaultBox, Zmin: 0, Zmax: DefaultBox / 2}
	}
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the run settings. Physical parameters are validated by
// the solver itself on Initialize.
func (c *Config) Validate() error {
	if !slices.Contains(Solvers, c.Solver) {
		return fmt.Errorf("config: unknown solver %q (have %v)", c.Solver, Solvers)
	}
	if c.Run.Dt <= 0 {
		return fmt.Errorf("config: dt must be positive, got %g", c.Run.Dt)
	}
	if c.Run.Steps <= 0 {
		return fmt.Errorf("config: steps must be positive, got %d", c.Run.Steps)
	}
	if c.Run.SampleEvery <= 0 {
		return fmt.Errorf("config: sample_every must be positive, got %d", c.Run.SampleEvery)
	}
	if c.Run.Box <= 0 {
		return fmt.Errorf("config: box must be positive, got %g", c.Run.Box)
	}
	if c.Parameters.NumberParticles <= 0 {
		return fmt.Errorf("config: particles must be positive, got %d", c.Parameters.NumberParticles)
	}
	return nil
}

// Clone returns a deep copy, so presets can be modified safely.
func (c *Config) Clone() *Config {
	out := *c
	out.Parameters.HydrodynamicRadius = append([]float64(nil), c.Parameters.HydrodynamicRadius...)
	return &out
}

// Duration is the simulated time of the run.
func (c *Config) Duration() float64 {
	return c.Run.Dt * float64(c.Run.Steps)
}
