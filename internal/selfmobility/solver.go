// Package selfmobility is the reference solver that ignores hydrodynamic
// interactions: every particle moves with its own Stokes drag.
package selfmobility

import (
	"math"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/san-kum/mobility/internal/mobility"
)

const Name = "SelfMobility"

var support = mobility.Support{
	Solver: Name,
	X:      []mobility.Periodicity{mobility.Open},
	Y:      []mobility.Periodicity{mobility.Open},
	Z:      []mobility.Periodicity{mobility.Open},
	Reason: "this is an open boundary solver",
}

type Solver struct {
	*mobility.Lifecycle
	k *diagonal
}

type Option func(*[]mobility.Option)

func WithLogger(l *zap.Logger) Option {
	return func(o *[]mobility.Option) { *o = append(*o, mobility.WithLogger(l)) }
}

func New(cfg mobility.Configuration, opts ...Option) (*Solver, error) {
	var lcOpts []mobility.Option
	for _, opt := range opts {
		opt(&lcOpts)
	}
	k := &diagonal{}
	lc, err := mobility.NewLifecycle(cfg, mobility.Variant{
		Name:    Name,
		Support: support,
		Kernel:  k,
		Torque:  true,
		Noise:   k.noise,
	}, lcOpts...)
	if err != nil {
		return nil, err
	}
	return &Solver{Lifecycle: lc, k: k}, nil
}

// SetParameters exists for symmetry with the other solvers. The self
// mobility has no variant parameters, so it only records that the solver
// was configured.
func (s *Solver) SetParameters() error {
	return s.Configure("setParameters", func() error { return nil })
}

// LinearMobility is 1/(6 pi eta a) for the current run.
func (s *Solver) LinearMobility() float64 { return s.k.linear }

// AngularMobility is 1/(8 pi eta a^3) for the current run.
func (s *Solver) AngularMobility() float64 { return s.k.angular }

type diagonal struct {
	linear      float64
	angular     float64
	temperature float64
	n           int
}

func (k *diagonal) Setup(par mobility.Parameters) error {
	a := par.Radius()
	k.linear = 1 / (6 * math.Pi * par.Viscosity * a)
	k.angular = 1 / (8 * math.Pi * par.Viscosity * a * a * a)
	k.temperature = par.Temperature
	k.n = 0
	return nil
}

func (k *diagonal) SetPositions(positions []float64) error {
	k.n = len(positions) / 3
	return nil
}

func (k *diagonal) NumberParticles() int { return k.n }

func (k *diagonal) Mdot(forces, torques, linear, angular []float64) error {
	for i, f := range forces {
		linear[i] = k.linear * f
	}
	if angular == nil {
		return nil
	}
	if torques == nil {
		clear(angular)
		return nil
	}
	for i, t := range torques {
		angular[i] = k.angular * t
	}
	return nil
}

// noise is the exact square root of the diagonal mobility.
func (k *diagonal) noise(rng *rand.Rand, out []float64, prefactor float64) error {
	scale := prefactor * math.Sqrt(2*k.temperature*k.linear)
	for i := range out {
		out[i] = scale * rng.NormFloat64()
	}
	return nil
}

func (k *diagonal) Release() error {
	k.n = 0
	return nil
}
