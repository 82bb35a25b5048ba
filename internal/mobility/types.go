package mobility

import (
	"fmt"
	"strings"
)

// Periodicity is the boundary condition along one axis.
type Periodicity int

const (
	Open Periodicity = iota
	Periodic
	SingleWall
	TwoWalls
)

var periodicityNames = map[Periodicity]string{
	Open:       "open",
	Periodic:   "periodic",
	SingleWall: "single_wall",
	TwoWalls:   "two_walls",
}

func (p Periodicity) String() string {
	if name, ok := periodicityNames[p]; ok {
		return name
	}
	return fmt.Sprintf("periodicity(%d)", int(p))
}

func ParsePeriodicity(s string) (Periodicity, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for p, name := range periodicityNames {
		if name == key {
			return p, nil
		}
	}
	return Open, fmt.Errorf("mobility: unknown periodicity %q", s)
}

func (p Periodicity) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Periodicity) UnmarshalText(text []byte) error {
	v, err := ParsePeriodicity(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Device is where a solver runs its engine.
type Device int

const (
	CPU Device = iota
	GPU
)

func (d Device) String() string {
	switch d {
	case CPU:
		return "cpu"
	case GPU:
		return "gpu"
	default:
		return fmt.Sprintf("device(%d)", int(d))
	}
}

func ParseDevice(s string) (Device, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cpu":
		return CPU, nil
	case "gpu":
		return GPU, nil
	}
	return CPU, fmt.Errorf("mobility: unknown device %q", s)
}

func (d Device) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Device) UnmarshalText(text []byte) error {
	v, err := ParseDevice(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Configuration selects the geometry and device a solver is built for.
// It is validated once by the solver constructor and never changes afterwards.
type Configuration struct {
	PeriodicityX Periodicity `yaml:"periodicity_x" json:"periodicity_x"`
	PeriodicityY Periodicity `yaml:"periodicity_y" json:"periodicity_y"`
	PeriodicityZ Periodicity `yaml:"periodicity_z" json:"periodicity_z"`
	Device       Device      `yaml:"device" json:"device"`
	Species      int         `yaml:"species" json:"species"`
}

// NumberSpecies treats an unset species count as a single species.
func (c Configuration) NumberSpecies() int {
	if c.Species == 0 {
		return 1
	}
	return c.Species
}

func (c Configuration) String() string {
	return fmt.Sprintf("%s/%s/%s on %s, %d species",
		c.PeriodicityX, c.PeriodicityY, c.PeriodicityZ, c.Device, c.NumberSpecies())
}

// DefaultTolerance is used for Parameters.Tolerance when it is left at zero.
const DefaultTolerance = 1e-4

// Parameters are the physical inputs of Initialize.
type Parameters struct {
	NumberParticles    int       `yaml:"particles" json:"particles"`
	Viscosity          float64   `yaml:"viscosity" json:"viscosity"`
	Temperature        float64   `yaml:"temperature" json:"temperature"`
	HydrodynamicRadius []float64 `yaml:"radius" json:"radius"`
	Tolerance          float64   `yaml:"tolerance" json:"tolerance"`
	// Seed of the solver's random source. Zero draws a fresh seed.
	Seed        uint64 `yaml:"seed" json:"seed"`
	NeedsTorque bool   `yaml:"torque" json:"torque"`
}

// Radius returns the hydrodynamic radius of the first species.
func (p Parameters) Radius() float64 {
	if len(p.HydrodynamicRadius) == 0 {
		return 0
	}
	return p.HydrodynamicRadius[0]
}

func (p Parameters) withDefaults() Parameters {
	if p.Tolerance == 0 {
		p.Tolerance = DefaultTolerance
	}
	p.HydrodynamicRadius = append([]float64(nil), p.HydrodynamicRadius...)
	return p
}

func (p Parameters) validate(species int) error {
	if p.NumberParticles <= 0 {
		return fmt.Errorf("number of particles must be positive, got %d", p.NumberParticles)
	}
	if !(p.Viscosity > 0) {
		return fmt.Errorf("viscosity must be positive, got %g", p.Viscosity)
	}
	if p.Temperature < 0 {
		return fmt.Errorf("temperature must be non-negative, got %g", p.Temperature)
	}
	if p.Tolerance < 0 {
		return fmt.Errorf("tolerance must be non-negative, got %g", p.Tolerance)
	}
	if len(p.HydrodynamicRadius) < species {
		return fmt.Errorf("need a hydrodynamic radius per species (%d), got %d", species, len(p.HydrodynamicRadius))
	}
	for i, a := range p.HydrodynamicRadius {
		if !(a > 0) {
			return fmt.Errorf("hydrodynamic radius %d must be positive, got %g", i, a)
		}
	}
	return nil
}
