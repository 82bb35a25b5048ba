package dpstokes

import (
	"go.uber.org/zap"

	"github.com/san-kum/mobility/internal/mobility"
)

// Name identifies the solver in errors and logs.
const Name = "DPStokes"

var support = mobility.Support{
	Solver: Name,
	X:      []mobility.Periodicity{mobility.Periodic},
	Y:      []mobility.Periodicity{mobility.Periodic},
	Z:      []mobility.Periodicity{mobility.Open, mobility.SingleWall, mobility.TwoWalls},
	Reason: "this is a doubly periodic solver",
}

// Solver is the doubly periodic mobility solver. SetParameters must be
// called before Initialize.
type Solver struct {
	*mobility.Lifecycle
	k *gridKernel
}

type options struct {
	factory EngineFactory
	lcOpts  []mobility.Option
}

type Option func(*options)

// WithEngine sets the factory for the external grid engine.
func WithEngine(f EngineFactory) Option {
	return func(o *options) { o.factory = f }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.lcOpts = append(o.lcOpts, mobility.WithLogger(l)) }
}

// New validates cfg and returns an unconfigured solver.
func New(cfg mobility.Configuration, opts ...Option) (*Solver, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	mode, _ := WallModeFor(cfg.PeriodicityZ)
	k := &gridKernel{mode: mode, factory: o.factory}
	lc, err := mobility.NewLifecycle(cfg, mobility.Variant{
		Name:              Name,
		Support:           support,
		Kernel:            k,
		Torque:            true,
		RequiresConfigure: true,
	}, o.lcOpts...)
	if err != nil {
		return nil, err
	}
	k.log = lc.Logger()
	return &Solver{Lifecycle: lc, k: k}, nil
}

// SetParameters stores the box geometry. Non-square boxes are rejected here.
func (s *Solver) SetParameters(g Geometry) error {
	return s.Configure("setParameters", func() error {
		if err := g.Validate(); err != nil {
			return err
		}
		s.k.geom = g
		return nil
	})
}

func (s *Solver) WallMode() WallMode { return s.k.mode }

func (s *Solver) Geometry() Geometry { return s.k.geom }

// Discretization is the grid handed to the engine by the last Initialize.
func (s *Solver) Discretization() Discretization { return s.k.disc }

type gridKernel struct {
	mode    WallMode
	geom    Geometry
	factory EngineFactory
	engine  Engine
	disc    Discretization
	log     *zap.Logger
}

func (k *gridKernel) Setup(par mobility.Parameters) error {
	// Resolve from the SetParameters geometry; a padded or stretched box
	// is never fed back.
	d, err := Resolve(Input{
		Radius:    par.Radius(),
		Viscosity: par.Viscosity,
		Geometry:  k.geom,
		Mode:      k.mode,
		Torque:    par.NeedsTorque,
	})
	if err != nil {
		return err
	}
	if k.factory == nil {
		return mobility.CapabilityError(Name, "initialize", "no grid engine available (build with -tags cuda)")
	}
	engine, err := k.factory()
	if err != nil {
		return mobility.CapabilityError(Name, "initialize", "grid engine unavailable: %v", err)
	}
	k.engine = engine
	if err := engine.Initialize(d, par.NumberParticles); err != nil {
		return err
	}
	k.disc = d
	k.log.Info("grid resolved",
		zap.Stringer("mode", d.Mode),
		zap.Int("nx", d.Nx), zap.Int("ny", d.Ny), zap.Int("nz", d.Nz),
		zap.Float64("h", d.H), zap.Float64("beta", d.Beta),
		zap.Float64("lx", d.Lx), zap.Float64("zmin", d.Zmin), zap.Float64("zmax", d.Zmax),
	)
	return nil
}

// SetPositions uploads only a configuration the engine was sized for. A
// different count is left to the lifecycle count check on the next Mdot.
func (k *gridKernel) SetPositions(positions []float64) error {
	if len(positions) != 3*k.engine.NumberParticles() {
		k.log.Debug("positions not uploaded, count differs from engine",
			zap.Int("engine", k.engine.NumberParticles()),
			zap.Int("positions", len(positions)/3))
		return nil
	}
	return k.engine.SetPositions(positions)
}

func (k *gridKernel) NumberParticles() int {
	if k.engine == nil {
		return 0
	}
	return k.engine.NumberParticles()
}

func (k *gridKernel) Mdot(forces, torques, linear, angular []float64) error {
	return k.engine.Mdot(forces, torques, linear, angular)
}

func (k *gridKernel) Release() error {
	if k.engine == nil {
		return nil
	}
	err := k.engine.Clear()
	k.engine = nil
	return err
}
