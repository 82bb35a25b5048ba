package experiment

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/san-kum/mobility/internal/analysis"
	"github.com/san-kum/mobility/internal/config"
	"github.com/san-kum/mobility/internal/dpstokes"
)

// Sample is the state of the run after a recorded step.
type Sample struct {
	Step int
	Time float64
	MSD  float64
	// Positions are the confined positions. Observers must not keep them.
	Positions []float64
}

type Observer func(Sample)

type Result struct {
	Solver string
	Times  []float64
	MSD    []float64
	// Increments is the x noise increment of the first particle per step.
	Increments []float64
	Initial    []float64
	Final      []float64
	Metrics    map[string]float64
}

// Experiment integrates overdamped Brownian dynamics
//
//	dr = M F dt + sqrt(2 kT dt) M^{1/2} W
//
// with one solver, driving it through Initialize, SetPositions, Mdot and
// SqrtMdotW every step.
type Experiment struct {
	cfg       *config.Config
	solver    Solver
	log       *zap.Logger
	observers []Observer
}

func New(cfg *config.Config, reg *Registry) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s, err := reg.Build(cfg)
	if err != nil {
		return nil, err
	}
	return &Experiment{
		cfg:    cfg,
		solver: s,
		log:    reg.Logger().With(zap.String("experiment", cfg.Solver)),
	}, nil
}

func (e *Experiment) Solver() Solver { return e.solver }

func (e *Experiment) AddObserver(o Observer) {
	e.observers = append(e.observers, o)
}

func (e *Experiment) Run(ctx context.Context) (res *Result, err error) {
	par := e.cfg.Parameters
	if err := e.solver.Initialize(par); err != nil {
		return nil, err
	}
	defer func() {
		if cerr := e.solver.Clean(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	e.solver.SetLanczosIterations(e.cfg.Run.LanczosIterations)

	seed := par.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, ^seed))

	n := par.NumberParticles
	b := e.bounds(par.Radius())
	pos := b.place(rng, n)
	e.log.Debug("particles placed", zap.Int("particles", n), zap.Stringer("region", b))
	origin := append([]float64(nil), pos...)
	unwrapped := append([]float64(nil), pos...)

	forces := make([]float64, 3*n)
	for i := range forces {
		forces[i] = e.cfg.Run.Force[i%3]
	}
	velocity := make([]float64, 3*n)
	noise := make([]float64, 3*n)

	dt := e.cfg.Run.Dt
	res = &Result{
		Solver:     e.solver.Name(),
		Times:      []float64{0},
		MSD:        []float64{0},
		Increments: make([]float64, 0, e.cfg.Run.Steps),
		Initial:    origin,
		Metrics:    make(map[string]float64),
	}
	e.notify(Sample{Step: 0, Positions: pos})

	for step := 1; step <= e.cfg.Run.Steps; step++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := e.solver.SetPositions(pos); err != nil {
			return nil, err
		}
		if err := e.solver.Mdot(forces, nil, velocity, nil); err != nil {
			return nil, err
		}
		if err := e.solver.SqrtMdotW(noise, math.Sqrt(dt)); err != nil {
			return nil, err
		}

		for i := range pos {
			d := velocity[i]*dt + noise[i]
			pos[i] += d
			unwrapped[i] += d
		}
		res.Increments = append(res.Increments, noise[0])
		b.confine(pos, unwrapped)

		if step%e.cfg.Run.SampleEvery == 0 {
			msd, err := analysis.MeanSquareDisplacement(origin, unwrapped)
			if err != nil {
				return nil, err
			}
			t := float64(step) * dt
			res.Times = append(res.Times, t)
			res.MSD = append(res.MSD, msd)
			e.notify(Sample{Step: step, Time: t, MSD: msd, Positions: pos})
		}
	}

	res.Final = append([]float64(nil), pos...)
	e.summarize(res, unwrapped)
	e.log.Info("run finished",
		zap.Int("steps", e.cfg.Run.Steps),
		zap.Float64("msd", res.MSD[len(res.MSD)-1]),
		zap.Float64("diffusion", res.Metrics["diffusion"]),
	)
	return res, nil
}

func (e *Experiment) notify(s Sample) {
	for _, o := range e.observers {
		o(s)
	}
}

func (e *Experiment) summarize(res *Result, unwrapped []float64) {
	par := e.cfg.Parameters
	mu := 1 / (6 * math.Pi * par.Viscosity * par.Radius())
	res.Metrics["diffusion_ideal"] = analysis.StokesEinstein(par.Temperature, mu)
	res.Metrics["final_msd"] = res.MSD[len(res.MSD)-1]

	if fit, err := analysis.FitDiffusion(res.Times, res.MSD, 3); err == nil {
		res.Metrics["diffusion"] = fit.D
		res.Metrics["r_squared"] = fit.RSquared
	}
	if drift, err := analysis.MeanDisplacement(res.Initial, unwrapped); err == nil {
		duration := e.cfg.Duration()
		res.Metrics["drift_x"] = drift[0] / duration
		res.Metrics["drift_y"] = drift[1] / duration
		res.Metrics["drift_z"] = drift[2] / duration
	}
	if len(res.Increments) > 1 {
		res.Metrics["noise_flatness"] = analysis.SpectralFlatness(analysis.PowerSpectrum(res.Increments))
	}
}

// region is where particles start and stay. Periodic sides wrap and walls
// reflect.
type region struct {
	lo, hi   [3]float64
	periodic [3]bool
	walls    bool
}

func (e *Experiment) bounds(radius float64) region {
	half := e.cfg.Run.Box / 2
	r := region{
		lo: [3]float64{-half, -half, -half},
		hi: [3]float64{half, half, half},
	}

	dp, ok := e.solver.(interface {
		Geometry() dpstokes.Geometry
		Discretization() dpstokes.Discretization
	})
	if !ok {
		return r
	}
	d, g := dp.Discretization(), dp.Geometry()
	r.lo[0], r.hi[0] = -d.Lx/2, d.Lx/2
	r.lo[1], r.hi[1] = -d.Ly/2, d.Ly/2
	r.periodic[0], r.periodic[1] = true, true
	r.lo[2], r.hi[2] = g.Zmin+radius, g.Zmax-radius
	if r.hi[2] <= r.lo[2] {
		mid := (g.Zmin + g.Zmax) / 2
		r.lo[2], r.hi[2] = mid, mid
	}
	r.walls = true
	return r
}

func (r region) place(rng *rand.Rand, n int) []float64 {
	pos := make([]float64, 3*n)
	for i := range pos {
		k := i % 3
		pos[i] = r.lo[k] + rng.Float64()*(r.hi[k]-r.lo[k])
	}
	return pos
}

func (r region) confine(pos, unwrapped []float64) {
	for i := range pos {
		k := i % 3
		switch {
		case r.periodic[k]:
			l := r.hi[k] - r.lo[k]
			pos[i] -= l * math.Floor((pos[i]-r.lo[k])/l)
		case r.walls && k == 2:
			before := pos[i]
			pos[i] = reflect(pos[i], r.lo[k], r.hi[k])
			unwrapped[i] += pos[i] - before
		}
	}
}

func reflect(z, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	for i := 0; i < 4 && (z < lo || z > hi); i++ {
		if z < lo {
			z = 2*lo - z
		}
		if z > hi {
			z = 2*hi - z
		}
	}
	return math.Min(math.Max(z, lo), hi)
}

func (r region) String() string {
	return fmt.Sprintf("[%g,%g]x[%g,%g]x[%g,%g]", r.lo[0], r.hi[0], r.lo[1], r.hi[1], r.lo[2], r.hi[2])
}
