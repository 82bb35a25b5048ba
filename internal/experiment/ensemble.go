package experiment

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/mobility/internal/config"
)

// Ensemble repeats one configuration over consecutive seeds. Every member
// builds its own solver.
type Ensemble struct {
	cfg     *config.Config
	reg     *Registry
	runs    int
	workers int
}

func NewEnsemble(cfg *config.Config, reg *Registry, runs int) *Ensemble {
	return &Ensemble{cfg: cfg, reg: reg, runs: runs, workers: runtime.NumCPU()}
}

// SetWorkers caps the number of members running at once.
func (en *Ensemble) SetWorkers(n int) {
	if n > 0 {
		en.workers = n
	}
}

// Run executes all members and returns their results in seed order. The
// first failure cancels the members still running.
func (en *Ensemble) Run(ctx context.Context) ([]*Result, error) {
	if en.runs <= 0 {
		return nil, fmt.Errorf("experiment: ensemble needs at least one run, got %d", en.runs)
	}
	if err := en.cfg.Validate(); err != nil {
		return nil, err
	}

	base := en.cfg.Parameters.Seed
	if base == 0 {
		base = rand.Uint64() >> 1
	}

	results := make([]*Result, en.runs)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(en.workers)
	for i := range en.runs {
		cfg := en.cfg.Clone()
		cfg.Parameters.Seed = base + uint64(i)
		g.Go(func() error {
			e, err := New(cfg, en.reg)
			if err != nil {
				return err
			}
			res, err := e.Run(ctx)
			if err != nil {
				return fmt.Errorf("ensemble member %d (seed %d): %w", i, cfg.Parameters.Seed, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	en.reg.Logger().Info("ensemble finished", zap.Int("runs", en.runs), zap.Uint64("base_seed", base))
	return results, nil
}

// EnsembleSummary pools the members of an ensemble.
type EnsembleSummary struct {
	Runs  int
	MeanD float64
	StdD  float64
	// Times and MSD are the sample times and the member-averaged MSD.
	Times []float64
	MSD   []float64
}

// Summarize averages the diffusion estimates and MSD curves of results.
// All members must share the same sampling.
func Summarize(results []*Result) (EnsembleSummary, error) {
	if len(results) == 0 {
		return EnsembleSummary{}, fmt.Errorf("experiment: nothing to summarize")
	}
	first := results[0]
	d := make([]float64, len(results))
	msd := make([]float64, len(first.MSD))
	for i, r := range results {
		if len(r.MSD) != len(msd) {
			return EnsembleSummary{}, fmt.Errorf("experiment: member %d has %d samples, want %d", i, len(r.MSD), len(msd))
		}
		d[i] = r.Metrics["diffusion"]
		for j, v := range r.MSD {
			msd[j] += v / float64(len(results))
		}
	}

	s := EnsembleSummary{
		Runs:  len(results),
		Times: append([]float64(nil), first.Times...),
		MSD:   msd,
	}
	if len(d) > 1 {
		s.MeanD, s.StdD = stat.MeanStdDev(d, nil)
	} else {
		s.MeanD = d[0]
	}
	return s, nil
}
