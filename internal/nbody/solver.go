package nbody

import (
	"math"

	"go.uber.org/zap"

	"github.com/san-kum/mobility/internal/mobility"
)

const Name = "NBody"

var support = mobility.Support{
	Solver:     Name,
	X:          []mobility.Periodicity{mobility.Open},
	Y:          []mobility.Periodicity{mobility.Open},
	Z:          []mobility.Periodicity{mobility.Open},
	Devices:    []mobility.Device{mobility.GPU},
	MaxSpecies: 1,
	Reason:     "this is an open boundary solver",
}

// Solver is the pairwise open boundary solver. It only runs on GPU devices.
type Solver struct {
	*mobility.Lifecycle
	k *pairKernel
}

type options struct {
	engine Engine
	lcOpts []mobility.Option
}

type Option func(*options)

// WithEngine sets the pairwise engine. Without one Initialize fails.
func WithEngine(e Engine) Option {
	return func(o *options) { o.engine = e }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.lcOpts = append(o.lcOpts, mobility.WithLogger(l)) }
}

func New(cfg mobility.Configuration, opts ...Option) (*Solver, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	k := &pairKernel{engine: o.engine, algo: Advise}
	lc, err := mobility.NewLifecycle(cfg, mobility.Variant{
		Name:    Name,
		Support: support,
		Kernel:  k,
	}, o.lcOpts...)
	if err != nil {
		return nil, err
	}
	return &Solver{Lifecycle: lc, k: k}, nil
}

// SetParameters chooses the engine algorithm. Optional; defaults to Advise.
func (s *Solver) SetParameters(algo Algorithm) error {
	return s.Configure("setParameters", func() error {
		if algo < Advise || algo > Block {
			return mobility.ParameterError(Name, "setParameters", "unknown algorithm %d", int(algo))
		}
		s.k.algo = algo
		return nil
	})
}

func (s *Solver) Algorithm() Algorithm { return s.k.algo }

// SelfMobility is 1/(6 pi eta a) for the current run.
func (s *Solver) SelfMobility() float64 { return s.k.selfMobility }

type pairKernel struct {
	engine       Engine
	algo         Algorithm
	positions    []float64
	selfMobility float64
	radius       float64
}

func (k *pairKernel) Setup(par mobility.Parameters) error {
	if k.engine == nil || !k.engine.Available() {
		name := "none"
		if k.engine != nil {
			name = k.engine.Name()
		}
		return mobility.CapabilityError(Name, "initialize", "this is a GPU-only solver and no pairwise engine is available (engine: %s)", name)
	}
	k.radius = par.Radius()
	k.selfMobility = 1 / (6 * math.Pi * par.Viscosity * k.radius)
	k.positions = k.positions[:0]
	return nil
}

func (k *pairKernel) SetPositions(positions []float64) error {
	k.positions = append(k.positions[:0], positions...)
	return nil
}

func (k *pairKernel) NumberParticles() int { return len(k.positions) / 3 }

func (k *pairKernel) Mdot(forces, _, linear, _ []float64) error {
	n := len(k.positions) / 3
	return k.engine.Compute(k.positions, forces, linear, 1, n, k.selfMobility, k.radius, k.algo)
}

func (k *pairKernel) Release() error {
	k.positions = nil
	return nil
}
