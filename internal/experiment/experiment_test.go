package experiment

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/mobility/internal/mobility"
)

var _ = Describe("Brownian dynamics", func() {
	var reg *Registry

	BeforeEach(func() {
		reg = testRegistry(&gridLog{})
	})

	run := func(e *Experiment) *Result {
		res, err := e.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		return res
	}

	It("recovers free diffusion MSD = 6 D t", func() {
		cfg := selfConfig()
		cfg.Parameters.NumberParticles = 400
		cfg.Run.Dt = 0.01
		cfg.Run.Steps = 100
		cfg.Run.SampleEvery = 10

		e, err := New(cfg, reg)
		Expect(err).NotTo(HaveOccurred())
		res := run(e)

		Expect(res.Solver).To(Equal("SelfMobility"))
		Expect(res.Times).To(HaveLen(11))
		Expect(res.MSD[0]).To(BeZero())
		Expect(res.Metrics["diffusion_ideal"]).To(BeNumerically("~", 1, 1e-12))
		Expect(res.Metrics["final_msd"]).To(BeNumerically("~", 6, 0.9))
		Expect(res.Metrics["diffusion"]).To(BeNumerically("~", 1, 0.15))
		Expect(res.Increments).To(HaveLen(100))
		Expect(e.Solver().Phase()).To(Equal(mobility.Cleaned))
	})

	It("drifts with M F when the temperature is zero", func() {
		cfg := selfConfig()
		cfg.Parameters.Temperature = 0
		cfg.Run.Force = [3]float64{0, 0, -1}
		cfg.Run.Dt = 0.1
		cfg.Run.Steps = 10

		e, err := New(cfg, reg)
		Expect(err).NotTo(HaveOccurred())
		res := run(e)

		Expect(res.Metrics["drift_z"]).To(BeNumerically("~", -1, 1e-9))
		Expect(res.Metrics["drift_x"]).To(BeNumerically("~", 0, 1e-12))
		Expect(res.Metrics["final_msd"]).To(BeNumerically("~", 1, 1e-9))
		for i := range res.Final {
			want := res.Initial[i]
			if i%3 == 2 {
				want -= 1
			}
			Expect(res.Final[i]).To(BeNumerically("~", want, 1e-9))
		}
	})

	It("repeats a run exactly for a fixed seed", func() {
		final := func() []float64 {
			cfg := nbodyConfig()
			cfg.Parameters.NumberParticles = 8
			cfg.Run.Steps = 20
			e, err := New(cfg, reg)
			Expect(err).NotTo(HaveOccurred())
			return run(e).Final
		}
		Expect(final()).To(Equal(final()))
	})

	It("keeps doubly periodic particles inside the cell and above the wall", func() {
		cfg := dpstokesConfig()
		cfg.Parameters.NumberParticles = 50
		cfg.Parameters.Temperature = 2
		cfg.Run.Dt = 0.05
		cfg.Run.Steps = 60
		cfg.Run.SampleEvery = 3

		e, err := New(cfg, reg)
		Expect(err).NotTo(HaveOccurred())

		samples := 0
		e.AddObserver(func(s Sample) {
			samples++
			for i, x := range s.Positions {
				switch i % 3 {
				case 0, 1:
					Expect(x).To(BeNumerically(">=", -8))
					Expect(x).To(BeNumerically("<", 8))
				case 2:
					Expect(x).To(BeNumerically(">=", 1))
					Expect(x).To(BeNumerically("<=", 7))
				}
			}
		})
		res := run(e)
		Expect(samples).To(Equal(21))
		Expect(res.Metrics["final_msd"]).To(BeNumerically(">", 0))
	})

	It("stops on context cancellation and cleans the solver", func() {
		cfg := selfConfig()
		cfg.Run.Steps = 1000
		e, err := New(cfg, reg)
		Expect(err).NotTo(HaveOccurred())

		ctx, cancel := context.WithCancel(context.Background())
		e.AddObserver(func(s Sample) {
			if s.Step == 10 {
				cancel()
			}
		})
		_, err = e.Run(ctx)
		Expect(err).To(MatchError(context.Canceled))
		Expect(e.Solver().Phase()).To(Equal(mobility.Cleaned))
	})

	It("surfaces solver errors from Initialize", func() {
		cfg := selfConfig()
		cfg.Parameters.Viscosity = -1
		e, err := New(cfg, reg)
		Expect(err).NotTo(HaveOccurred())
		_, err = e.Run(context.Background())
		Expect(err).To(MatchError(mobility.ErrParameter))
	})

	It("rejects invalid run configs before building a solver", func() {
		cfg := selfConfig()
		cfg.Run.Steps = 0
		_, err := New(cfg, reg)
		Expect(err).To(HaveOccurred())

		cfg = selfConfig()
		cfg.Solver = "fcm"
		_, err = New(cfg, reg)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Registry", func() {
	It("lists the built-in solvers", func() {
		reg := NewRegistry()
		Expect(reg.ListSolvers()).To(Equal([]string{"dpstokes", "nbody", "self"}))
		Expect(reg.Summary("nbody")).To(ContainSubstring("pairwise"))
	})

	It("accepts extra solvers", func() {
		reg := testRegistry(&gridLog{})
		reg.Register("self2", "another self mobility", buildSelf)
		cfg := selfConfig()
		cfg.Solver = "self2"
		s, err := reg.Build(cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Name()).To(Equal("SelfMobility"))
	})
})

var _ = Describe("reflect", func() {
	It("folds positions back between the walls", func() {
		Expect(reflect(-0.5, 0, 2)).To(BeNumerically("~", 0.5, 1e-15))
		Expect(reflect(2.5, 0, 2)).To(BeNumerically("~", 1.5, 1e-15))
		Expect(reflect(1, 0, 2)).To(Equal(1.0))
		Expect(reflect(7, 3, 3)).To(Equal(3.0))
		Expect(math.IsNaN(reflect(100, 0, 1))).To(BeFalse())
	})
})
