package mobility

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"go.uber.org/zap"
)

// Phase is the lifecycle position of a solver.
type Phase int

const (
	Constructed Phase = iota
	Configured
	Initialized
	PositionsSet
	Cleaned
)

func (p Phase) String() string {
	switch p {
	case Constructed:
		return "constructed"
	case Configured:
		return "configured"
	case Initialized:
		return "initialized"
	case PositionsSet:
		return "positions-set"
	case Cleaned:
		return "cleaned"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Option configures a Lifecycle.
type Option func(*Lifecycle)

// WithLogger sets the logger used for lifecycle events.
func WithLogger(l *zap.Logger) Option {
	return func(lc *Lifecycle) {
		if l != nil {
			lc.log = l
		}
	}
}

// Lifecycle enforces the call order shared by every solver and dispatches to
// the variant's Kernel. Variant packages embed *Lifecycle in their solver type.
type Lifecycle struct {
	name    string
	cfg     Configuration
	caps    Capabilities
	kernel  Kernel
	noise   NoiseFunc
	log     *zap.Logger
	phase   Phase
	par     Parameters
	held    bool
	config  bool
	n       int
	rng     *rand.Rand
	maxIter int
}

// NewLifecycle validates cfg against v.Support and returns a solver in the
// Constructed phase. Nothing is allocated when validation fails.
func NewLifecycle(cfg Configuration, v Variant, opts ...Option) (*Lifecycle, error) {
	if v.Kernel == nil {
		return nil, fmt.Errorf("mobility: variant %q has no kernel", v.Name)
	}
	support := v.Support
	if support.Solver == "" {
		support.Solver = v.Name
	}
	if err := support.Validate(cfg); err != nil {
		return nil, err
	}
	lc := &Lifecycle{
		name:   v.Name,
		cfg:    cfg,
		caps:   v.capabilities(),
		kernel: v.Kernel,
		noise:  v.Noise,
		log:    zap.NewNop(),
		phase:  Constructed,
	}
	for _, opt := range opts {
		opt(lc)
	}
	lc.log = lc.log.With(zap.String("solver", v.Name))
	lc.log.Debug("solver constructed", zap.Stringer("configuration", cfg))
	return lc, nil
}

func (lc *Lifecycle) Name() string                 { return lc.name }
func (lc *Lifecycle) Configuration() Configuration { return lc.cfg }
func (lc *Lifecycle) Capabilities() Capabilities   { return lc.caps }
func (lc *Lifecycle) Phase() Phase                 { return lc.phase }
func (lc *Lifecycle) Parameters() Parameters       { return lc.par }
func (lc *Lifecycle) Logger() *zap.Logger          { return lc.log }

// NumberParticles is the count recorded by the last SetPositions.
func (lc *Lifecycle) NumberParticles() int { return lc.n }

// TorqueEnabled reports whether torques are coupled in the current run.
func (lc *Lifecycle) TorqueEnabled() bool {
	return lc.caps.Torque && lc.par.NeedsTorque && lc.active()
}

func (lc *Lifecycle) active() bool {
	return lc.phase == Initialized || lc.phase == PositionsSet
}

// Configure runs a variant-specific setter. It is only allowed while no
// engine is held; apply reports its own ParameterError.
func (lc *Lifecycle) Configure(op string, apply func() error) error {
	if lc.active() {
		return StateError(lc.name, op, "must be called before initialize (or after clean), solver is %s", lc.phase)
	}
	if err := apply(); err != nil {
		return err
	}
	lc.config = true
	lc.phase = Configured
	lc.log.Debug("solver configured", zap.String("op", op))
	return nil
}

// Initialize stores par, derives variant state and allocates the engine.
// On failure any partially allocated engine is released and the phase is
// left unchanged, so Initialize can be retried with corrected parameters.
func (lc *Lifecycle) Initialize(par Parameters) error {
	const op = "initialize"
	if lc.active() {
		return StateError(lc.name, op, "already initialized, call Clean first")
	}
	if lc.caps.RequiresConfigure && !lc.config {
		return StateError(lc.name, op, "variant parameters must be set before initialize")
	}
	par = par.withDefaults()
	if err := par.validate(lc.cfg.NumberSpecies()); err != nil {
		return ParameterError(lc.name, op, "%v", err)
	}
	if par.NeedsTorque && !lc.caps.Torque {
		return CapabilityError(lc.name, op, "torque coupling is not supported")
	}

	if err := lc.kernel.Setup(par); err != nil {
		if rerr := lc.kernel.Release(); rerr != nil {
			lc.log.Warn("release after failed setup", zap.Error(rerr))
		}
		return lc.wrap(op, err)
	}

	seed := par.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	lc.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	lc.par = par
	lc.held = true
	lc.n = 0
	lc.maxIter = 0
	lc.phase = Initialized
	lc.log.Info("solver initialized",
		zap.Int("particles", par.NumberParticles),
		zap.Float64("viscosity", par.Viscosity),
		zap.Float64("radius", par.Radius()),
		zap.Bool("torque", par.NeedsTorque),
	)
	return nil
}

// SetPositions records a particle configuration. It may change the count.
func (lc *Lifecycle) SetPositions(positions []float64) error {
	const op = "setPositions"
	if !lc.active() {
		return StateError(lc.name, op, "solver is %s, call Initialize first", lc.phase)
	}
	if len(positions) == 0 || len(positions)%3 != 0 {
		return ParameterError(lc.name, op, "positions must hold 3 values per particle, got %d values", len(positions))
	}
	if err := lc.kernel.SetPositions(positions); err != nil {
		return lc.wrap(op, err)
	}
	lc.n = len(positions) / 3
	lc.phase = PositionsSet
	return nil
}

// Mdot computes linear (and optionally angular) velocities from forces
// (and optionally torques).
func (lc *Lifecycle) Mdot(forces, torques, linear, angular []float64) error {
	const op = "Mdot"
	if err := lc.ready(op); err != nil {
		return err
	}
	if (torques != nil || angular != nil) && !lc.TorqueEnabled() {
		if !lc.caps.Torque {
			return CapabilityError(lc.name, op, "this solver can only compute monopole displacements")
		}
		return CapabilityError(lc.name, op, "torques require initialize with NeedsTorque")
	}
	if err := lc.shape(op, "forces", forces, true); err != nil {
		return err
	}
	if err := lc.shape(op, "linear", linear, true); err != nil {
		return err
	}
	if err := lc.shape(op, "torques", torques, false); err != nil {
		return err
	}
	if err := lc.shape(op, "angular", angular, false); err != nil {
		return err
	}
	return lc.wrap(op, lc.kernel.Mdot(forces, torques, linear, angular))
}

// SqrtMdotW fills out with prefactor * sqrt(2 kT M) W for a standard normal W.
func (lc *Lifecycle) SqrtMdotW(out []float64, prefactor float64) error {
	const op = "sqrtMdotW"
	if err := lc.ready(op); err != nil {
		return err
	}
	if err := lc.shape(op, "out", out, true); err != nil {
		return err
	}
	if lc.noise != nil {
		return lc.wrap(op, lc.noise(lc.rng, out, prefactor))
	}

	w := make([]float64, len(out))
	for i := range w {
		w[i] = lc.rng.NormFloat64()
	}
	apply := func(v, mv []float64) error {
		for i := range mv {
			mv[i] = 0
		}
		return lc.kernel.Mdot(v, nil, mv, nil)
	}
	sq, info, err := LanczosSqrt(apply, w, lc.par.Tolerance, lc.maxIter)
	if err != nil {
		return lc.wrap(op, err)
	}
	if info.Converged {
		lc.log.Debug("lanczos converged", zap.Int("iterations", info.Iterations))
	} else {
		lc.log.Warn("lanczos stopped at the iteration cap before reaching the tolerance",
			zap.Int("iterations", info.Iterations),
			zap.Float64("tolerance", lc.par.Tolerance))
	}
	scale := prefactor * math.Sqrt(2*lc.par.Temperature)
	for i := range out {
		out[i] = scale * sq[i]
	}
	return nil
}

// Clean releases the engine. It is idempotent and the solver can be
// initialized again afterwards.
func (lc *Lifecycle) Clean() error {
	if !lc.held {
		if lc.active() {
			lc.phase = Cleaned
		}
		return nil
	}
	lc.held = false
	lc.n = 0
	lc.phase = Cleaned
	if err := lc.kernel.Release(); err != nil {
		return lc.wrap("clean", err)
	}
	lc.log.Info("solver cleaned")
	return nil
}

// SetLanczosIterations caps the Krylov basis of the default SqrtMdotW.
// Zero means one vector per degree of freedom.
func (lc *Lifecycle) SetLanczosIterations(n int) {
	lc.maxIter = n
}

func (lc *Lifecycle) ready(op string) error {
	if lc.phase != PositionsSet {
		return StateError(lc.name, op, "solver is %s, call SetPositions after Initialize first", lc.phase)
	}
	if got := lc.kernel.NumberParticles(); got != lc.n {
		return StateError(lc.name, op,
			"wrong number of particles in positions (engine has %d, last SetPositions had %d); did you forget to call SetPositions?",
			got, lc.n)
	}
	return nil
}

func (lc *Lifecycle) shape(op, name string, buf []float64, required bool) error {
	if buf == nil && !required {
		return nil
	}
	if len(buf) != 3*lc.n {
		return StateError(lc.name, op, "%s holds %d values, expected %d for %d particles", name, len(buf), 3*lc.n, lc.n)
	}
	return nil
}

// wrap leaves typed errors untouched and tags engine failures with the solver.
func (lc *Lifecycle) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var me *Error
	if errors.As(err, &me) {
		return err
	}
	return fmt.Errorf("[%s] %s: %w", lc.name, op, err)
}
