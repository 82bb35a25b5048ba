package experiment

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/mobility/internal/mobility"
)

var _ = Describe("Solver lifecycle", func() {
	var (
		grid *gridLog
		reg  *Registry
	)

	BeforeEach(func() {
		grid = &gridLog{}
		reg = testRegistry(grid)
	})

	build := func(name string) (Solver, mobility.Parameters) {
		cfg := configFor(name)
		s, err := reg.Build(cfg)
		Expect(err).NotTo(HaveOccurred())
		return s, cfg.Parameters
	}

	positions := func(n int) []float64 {
		pos := make([]float64, 3*n)
		for i := range pos {
			pos[i] = float64(i%3) + 2*float64(i/3)
		}
		return pos
	}

	DescribeTable("Mdot before SetPositions is a state error",
		func(name string) {
			s, par := build(name)
			Expect(s.Initialize(par)).To(Succeed())
			buf := make([]float64, 3*par.NumberParticles)
			Expect(s.Mdot(buf, nil, buf, nil)).To(MatchError(mobility.ErrState))
			Expect(s.SqrtMdotW(buf, 1)).To(MatchError(mobility.ErrState))
			Expect(s.Clean()).To(Succeed())
		},
		Entry("self", "self"),
		Entry("nbody", "nbody"),
		Entry("dpstokes", "dpstokes"),
	)

	DescribeTable("Initialize twice is a state error",
		func(name string) {
			s, par := build(name)
			Expect(s.Initialize(par)).To(Succeed())
			Expect(s.Initialize(par)).To(MatchError(mobility.ErrState))
			Expect(s.Phase()).To(Equal(mobility.Initialized))
		},
		Entry("self", "self"),
		Entry("nbody", "nbody"),
		Entry("dpstokes", "dpstokes"),
	)

	DescribeTable("buffers sized for another particle count are rejected",
		func(name string) {
			s, par := build(name)
			Expect(s.Initialize(par)).To(Succeed())
			Expect(s.SetPositions(positions(par.NumberParticles))).To(Succeed())
			short := make([]float64, 3*(par.NumberParticles-1))
			full := make([]float64, 3*par.NumberParticles)
			Expect(s.Mdot(short, nil, full, nil)).To(MatchError(mobility.ErrState))
			Expect(s.SqrtMdotW(short, 1)).To(MatchError(mobility.ErrState))
		},
		Entry("self", "self"),
		Entry("nbody", "nbody"),
		Entry("dpstokes", "dpstokes"),
	)

	DescribeTable("Clean is idempotent and the solver can run again",
		func(name string) {
			s, par := build(name)
			for round := 0; round < 2; round++ {
				Expect(s.Initialize(par)).To(Succeed())
				Expect(s.SetPositions(positions(par.NumberParticles))).To(Succeed())
				forces := make([]float64, 3*par.NumberParticles)
				forces[2] = 1
				linear := make([]float64, len(forces))
				Expect(s.Mdot(forces, nil, linear, nil)).To(Succeed())
				Expect(linear[2]).To(BeNumerically(">", 0))
				Expect(s.Clean()).To(Succeed())
				Expect(s.Clean()).To(Succeed())
				Expect(s.Phase()).To(Equal(mobility.Cleaned))
			}
		},
		Entry("self", "self"),
		Entry("nbody", "nbody"),
		Entry("dpstokes", "dpstokes"),
	)

	DescribeTable("SqrtMdotW is finite and repeatable for a fixed seed",
		func(name string) {
			draw := func() []float64 {
				s, par := build(name)
				Expect(s.Initialize(par)).To(Succeed())
				Expect(s.SetPositions(positions(par.NumberParticles))).To(Succeed())
				out := make([]float64, 3*par.NumberParticles)
				Expect(s.SqrtMdotW(out, 0.1)).To(Succeed())
				Expect(s.Clean()).To(Succeed())
				return out
			}
			first := draw()
			for _, v := range first {
				Expect(math.IsNaN(v) || math.IsInf(v, 0)).To(BeFalse())
			}
			Expect(first).To(ContainElement(Not(BeZero())))
			Expect(draw()).To(Equal(first))
		},
		Entry("self", "self"),
		Entry("nbody", "nbody"),
		Entry("dpstokes", "dpstokes"),
	)

	DescribeTable("torque coupling",
		func(name string, supported bool) {
			s, par := build(name)
			Expect(s.Capabilities().Torque).To(Equal(supported))
			par.NeedsTorque = true
			if name == "dpstokes" {
				par.HydrodynamicRadius = []float64{1.2}
			}
			err := s.Initialize(par)
			if !supported {
				Expect(err).To(MatchError(mobility.ErrCapability))
				return
			}
			Expect(err).NotTo(HaveOccurred())
			Expect(s.SetPositions(positions(par.NumberParticles))).To(Succeed())
			n := 3 * par.NumberParticles
			torques := make([]float64, n)
			torques[0] = 1
			angular := make([]float64, n)
			Expect(s.Mdot(make([]float64, n), torques, make([]float64, n), angular)).To(Succeed())
			Expect(angular[0]).To(BeNumerically(">", 0))
		},
		Entry("self", "self", true),
		Entry("nbody", "nbody", false),
		Entry("dpstokes", "dpstokes", true),
	)

	It("releases the grid engine exactly once per initialize", func() {
		s, par := build("dpstokes")
		Expect(s.Initialize(par)).To(Succeed())
		Expect(s.Clean()).To(Succeed())
		Expect(s.Clean()).To(Succeed())
		Expect(s.Initialize(par)).To(Succeed())
		Expect(s.Clean()).To(Succeed())

		Expect(grid.engines).To(HaveLen(2))
		for _, e := range grid.engines {
			Expect(e.held).To(Equal(1))
			Expect(e.cleared).To(Equal(1))
		}
	})

	It("rejects unsupported geometries at construction", func() {
		cfg := selfConfig()
		cfg.Configuration.PeriodicityZ = mobility.Periodic
		_, err := reg.Build(cfg)
		Expect(err).To(MatchError(mobility.ErrConfiguration))

		cfg = dpstokesConfig()
		cfg.Configuration.PeriodicityX = mobility.Open
		_, err = reg.Build(cfg)
		Expect(err).To(MatchError(mobility.ErrConfiguration))

		cfg = dpstokesConfig()
		cfg.DPStokes.Ly = 12
		_, err = reg.Build(cfg)
		Expect(err).To(MatchError(mobility.ErrParameter))
	})
})
