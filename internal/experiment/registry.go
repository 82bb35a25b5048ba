package experiment

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/san-kum/mobility/internal/compute"
	"github.com/san-kum/mobility/internal/config"
	"github.com/san-kum/mobility/internal/dpstokes"
	"github.com/san-kum/mobility/internal/mobility"
	"github.com/san-kum/mobility/internal/nbody"
	"github.com/san-kum/mobility/internal/selfmobility"
)

// Solver is what the registry builds: any mobility solver whose default
// noise can be tuned.
type Solver interface {
	mobility.Solver
	SetLanczosIterations(n int)
}

// Builder constructs and configures a solver from a run config. The solver
// is returned ready for Initialize.
type Builder func(cfg *config.Config, r *Registry) (Solver, error)

type entry struct {
	summary string
	build   Builder
}

type Registry struct {
	solvers  map[string]entry
	log      *zap.Logger
	pairwise compute.PairwiseBackend
	grid     dpstokes.EngineFactory
}

type RegistryOption func(*Registry)

func WithLogger(l *zap.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// WithPairwiseBackend fixes the pairwise engine instead of selecting it from
// the config's backend name.
func WithPairwiseBackend(b compute.PairwiseBackend) RegistryOption {
	return func(r *Registry) { r.pairwise = b }
}

// WithGridEngine replaces the CUDA grid engine factory.
func WithGridEngine(f dpstokes.EngineFactory) RegistryOption {
	return func(r *Registry) { r.grid = f }
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		solvers: make(map[string]entry),
		log:     zap.NewNop(),
		grid:    compute.GridEngineFactory(),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.Register("self", "open boundary, no hydrodynamic interactions, closed-form noise, torques", buildSelf)
	r.Register("nbody", "open boundary RPY pairwise sums, GPU device, single species", buildNBody)
	r.Register("dpstokes", "doubly periodic box with open, single wall or slit Z, torques", buildDPStokes)
	return r
}

// Register adds or replaces a solver.
func (r *Registry) Register(name, summary string, b Builder) {
	r.solvers[name] = entry{summary: summary, build: b}
}

func (r *Registry) Build(cfg *config.Config) (Solver, error) {
	e, ok := r.solvers[cfg.Solver]
	if !ok {
		return nil, fmt.Errorf("unknown solver: %s", cfg.Solver)
	}
	return e.build(cfg, r)
}

func (r *Registry) ListSolvers() []string {
	names := make([]string, 0, len(r.solvers))
	for name := range r.solvers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Summary(name string) string {
	return r.solvers[name].summary
}

func (r *Registry) Logger() *zap.Logger { return r.log }

// Pairwise returns the fixed pairwise backend or selects one by name.
func (r *Registry) Pairwise(name string) (compute.PairwiseBackend, error) {
	if r.pairwise != nil {
		return r.pairwise, nil
	}
	return compute.SelectBackend(name)
}

// Close releases the fixed pairwise backend, if any.
func (r *Registry) Close() {
	if r.pairwise != nil {
		r.pairwise.Cleanup()
	}
}

func buildSelf(cfg *config.Config, r *Registry) (Solver, error) {
	return selfmobility.New(cfg.Configuration, selfmobility.WithLogger(r.log))
}

func buildNBody(cfg *config.Config, r *Registry) (Solver, error) {
	backend, err := r.Pairwise(cfg.Backend)
	if err != nil {
		return nil, err
	}
	s, err := nbody.New(cfg.Configuration, nbody.WithEngine(backend), nbody.WithLogger(r.log))
	if err != nil {
		return nil, err
	}
	if err := s.SetParameters(cfg.NBody.Algorithm); err != nil {
		return nil, err
	}
	r.log.Debug("pairwise backend selected", zap.String("backend", backend.Name()))
	return s, nil
}

func buildDPStokes(cfg *config.Config, r *Registry) (Solver, error) {
	s, err := dpstokes.New(cfg.Configuration, dpstokes.WithEngine(r.grid), dpstokes.WithLogger(r.log))
	if err != nil {
		return nil, err
	}
	if err := s.SetParameters(cfg.DPStokes); err != nil {
		return nil, err
	}
	return s, nil
}
