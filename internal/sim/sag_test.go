package sim_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/fibersag/internal/analysis"
	"github.com/san-kum/fibersag/internal/dynamo"
	"github.com/san-kum/fibersag/internal/metrics"
	"github.com/san-kum/fibersag/internal/physics"
	"github.com/san-kum/fibersag/internal/sim"
)

var _ = Describe("hanging fiber", func() {
	var p physics.Params

	BeforeEach(func() {
		p = physics.DefaultParams()
		p.Subdivisions = 20
		p.K = 50
		p.RestLength = 4
		p.Damping = 0.5
		p.TotalMass = 1
		p.Dt = 1e-3
	})

	It("converges close to the elastic catenary", func() {
		chain, err := physics.NewChain(p)
		Expect(err).NotTo(HaveOccurred())

		s := sim.New(chain, dynamo.DefaultConfig())
		ke := metrics.NewKineticEnergy()
		s.AddMetric(ke)

		result, err := s.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Converged).To(BeTrue())
		Expect(result.Reason).To(Equal(dynamo.StopConverged))
		Expect(result.StdDev).To(BeNumerically("<", 0.01))

		cat, err := analysis.PredictSag(p)
		Expect(err).NotTo(HaveOccurred())

		Expect(result.LowestHeight).To(BeNumerically("<", 0))
		Expect(math.Abs(-result.LowestHeight-cat.Sag) / cat.Sag).To(BeNumerically("<", 0.05))

		Expect(ke.Peak()).To(BeNumerically(">", result.Metrics["kinetic_energy"]))
	})

	It("hangs symmetrically about the midpoint", func() {
		chain, err := physics.NewChain(p)
		Expect(err).NotTo(HaveOccurred())

		_, err = sim.New(chain, dynamo.DefaultConfig()).Run(context.Background())
		Expect(err).NotTo(HaveOccurred())

		pos := chain.Positions()
		n := len(pos) - 1
		for i := 0; i <= n/2; i++ {
			Expect(pos[i].Y).To(BeNumerically("~", pos[n-i].Y, 1e-6))
			Expect(pos[i].X).To(BeNumerically("~", -pos[n-i].X, 1e-6))
		}
		Expect(chain.LowestHeight()).To(Equal(pos[n/2].Y))
	})

	It("stays within a few percent across refinements", func() {
		cat, err := analysis.PredictSag(p)
		Expect(err).NotTo(HaveOccurred())

		for _, n := range []int{10, 40} {
			q := p
			q.Subdivisions = n
			q.Dt = physics.StableTimestep(q, 0.5)

			chain, err := physics.NewChain(q)
			Expect(err).NotTo(HaveOccurred())

			cfg := dynamo.DefaultConfig()
			result, err := sim.New(chain, cfg).Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Converged).To(BeTrue())

			ref, err := analysis.PredictSag(q)
			Expect(err).NotTo(HaveOccurred())
			Expect(math.Abs(-result.LowestHeight-ref.Sag) / ref.Sag).To(BeNumerically("<", 0.05),
				"n=%d", n)
			Expect(math.Abs(-result.LowestHeight-cat.Sag) / cat.Sag).To(BeNumerically("<", 0.1),
				"n=%d", n)
		}
	})

	It("stops early when the context is canceled", func() {
		chain, err := physics.NewChain(p)
		Expect(err).NotTo(HaveOccurred())

		ctx, cancel := context.WithCancel(context.Background())
		cfg := dynamo.DefaultConfig()
		cfg.SampleEvery = 10

		var result *dynamo.Result
		s := sim.New(chain, cfg)
		s.AddObserver(cancelAfter{step: 200, cancel: cancel})
		result, err = s.Run(ctx)

		Expect(err).To(MatchError(context.Canceled))
		Expect(result.Reason).To(Equal(dynamo.StopCanceled))
		Expect(result.Steps).To(Equal(200))
		Expect(result.Heights).To(HaveLen(20))
	})
})

type cancelAfter struct {
	step   int
	cancel context.CancelFunc
}

func (c cancelAfter) OnSample(s dynamo.Snapshot) {
	if s.Step >= c.step {
		c.cancel()
	}
}
