package experiment

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Ensemble", func() {
	var reg *Registry

	BeforeEach(func() {
		reg = testRegistry(&gridLog{})
	})

	It("runs consecutive seeds and keeps their order", func() {
		cfg := selfConfig()
		cfg.Run.Steps = 20
		cfg.Run.SampleEvery = 5

		en := NewEnsemble(cfg, reg, 4)
		en.SetWorkers(2)
		results, err := en.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(4))

		single := selfConfig()
		single.Run = cfg.Run
		single.Parameters.Seed = cfg.Parameters.Seed + 2
		e, err := New(single, reg)
		Expect(err).NotTo(HaveOccurred())
		want, err := e.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())

		Expect(results[2].Final).To(Equal(want.Final))
		Expect(results[0].Final).NotTo(Equal(results[1].Final))
		Expect(cfg.Parameters.Seed).To(Equal(uint64(21)), "the base config is not modified")
	})

	It("pools diffusion estimates", func() {
		cfg := selfConfig()
		cfg.Parameters.NumberParticles = 100
		cfg.Run.Steps = 50
		cfg.Run.SampleEvery = 10

		results, err := NewEnsemble(cfg, reg, 6).Run(context.Background())
		Expect(err).NotTo(HaveOccurred())

		s, err := Summarize(results)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Runs).To(Equal(6))
		Expect(s.Times).To(HaveLen(6))
		Expect(s.MSD).To(HaveLen(6))
		Expect(s.MeanD).To(BeNumerically("~", 1, 0.2))
		Expect(s.StdD).To(BeNumerically(">", 0))
	})

	It("rejects empty ensembles and mismatched members", func() {
		_, err := NewEnsemble(selfConfig(), reg, 0).Run(context.Background())
		Expect(err).To(MatchError(ContainSubstring("at least one run")))

		_, err = Summarize(nil)
		Expect(err).To(HaveOccurred())

		_, err = Summarize([]*Result{{MSD: []float64{0, 1}}, {MSD: []float64{0}}})
		Expect(err).To(MatchError(ContainSubstring("member 1")))
	})

	It("stops on the first failing member", func() {
		cfg := selfConfig()
		cfg.Parameters.Viscosity = -1

		_, err := NewEnsemble(cfg, reg, 3).Run(context.Background())
		Expect(err).To(MatchError(ContainSubstring("ensemble member")))
	})
})
