package physics_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/fibersag/internal/dynamo"
	"github.com/san-kum/fibersag/internal/physics"
)

func sagParams() physics.Params {
	p := physics.DefaultParams()
	p.Subdivisions = 20
	p.K = 50
	p.RestLength = 4
	p.Damping = 0.5
	p.TotalMass = 1
	p.Dt = 1e-3
	return p
}

func stepN(c *physics.Chain, n int) {
	for i := 0; i < n; i++ {
		Expect(c.Step()).To(Succeed())
	}
}

var _ = Describe("Chain", func() {
	Describe("construction", func() {
		It("lays out n+1 nodes between the endpoints", func() {
			c, err := physics.NewChain(sagParams())
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Len()).To(Equal(21))
			Expect(c.Node(0).Position).To(Equal(dynamo.Vec(-2, 0)))
			Expect(c.Node(20).Position).To(Equal(dynamo.Vec(2, 0)))
			Expect(c.Steps()).To(BeZero())
			Expect(c.IntegratorName()).To(Equal("symplectic-euler"))
		})

		It("rejects fewer than two nodes", func() {
			_, err := physics.NewChainFromNodes([]dynamo.Node{{Mass: 1}}, sagParams())
			Expect(err).To(MatchError(dynamo.ErrInvalidTopology))

			_, err = physics.NewChainFromNodes(nil, sagParams())
			Expect(err).To(MatchError(dynamo.ErrInvalidTopology))
		})

		It("rejects a node without mass", func() {
			nodes := []dynamo.Node{{Mass: 1}, {Position: dynamo.Vec(1, 0)}}
			_, err := physics.NewChainFromNodes(nodes, sagParams())
			Expect(err).To(MatchError(dynamo.ErrInvalidParameter))
		})

		It("rejects invalid constants", func() {
			p := sagParams()
			p.Dt = 0
			_, err := physics.NewChain(p)
			Expect(err).To(MatchError(dynamo.ErrInvalidParameter))
		})

		It("rejects an unknown integrator", func() {
			p := sagParams()
			p.Integrator = "leapfrog"
			_, err := physics.NewChain(p)
			Expect(err).To(MatchError(dynamo.ErrInvalidParameter))
		})
	})

	Describe("anchors", func() {
		It("never move, bit for bit", func() {
			c, err := physics.NewChain(sagParams())
			Expect(err).NotTo(HaveOccurred())
			left, right := c.Node(0), c.Node(20)

			stepN(c, 2000)

			Expect(c.Node(0)).To(Equal(left))
			Expect(c.Node(20)).To(Equal(right))
		})

		It("leave a two-node fiber unchanged", func() {
			nodes := []dynamo.Node{
				{Position: dynamo.Vec(0, 0), Mass: 1},
				{Position: dynamo.Vec(3, 1), Mass: 1},
			}
			c, err := physics.NewChainFromNodes(nodes, sagParams())
			Expect(err).NotTo(HaveOccurred())

			stepN(c, 500)

			Expect(c.Node(0)).To(Equal(nodes[0]))
			Expect(c.Node(1)).To(Equal(nodes[1]))
			Expect(c.Steps()).To(Equal(500))
		})
	})

	Describe("rest state", func() {
		var p physics.Params

		BeforeEach(func() {
			p = physics.DefaultParams()
			p.K = 50
			p.RestLength = 3
			p.Gravity = 0
			p.Damping = 0
			p.Dt = 1e-3
		})

		It("exerts no force on a two-node fiber at its rest length", func() {
			nodes := []dynamo.Node{
				{Position: dynamo.Vec(0, 0), Mass: 1},
				{Position: dynamo.Vec(3, 0), Mass: 1},
			}
			c, err := physics.NewChainFromNodes(nodes, p)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.Step()).To(Succeed())
			for _, f := range c.Forces() {
				Expect(f).To(Equal(dynamo.Zero))
			}

			stepN(c, 1000)
			Expect(c.Positions()).To(Equal([]dynamo.Vector2D{nodes[0].Position, nodes[1].Position}))
		})

		It("leaves evenly spaced interior nodes where they are", func() {
			nodes := []dynamo.Node{
				{Position: dynamo.Vec(0, 0), Mass: 1},
				{Position: dynamo.Vec(1, 0), Mass: 1},
				{Position: dynamo.Vec(2, 0), Mass: 1},
				{Position: dynamo.Vec(3, 0), Mass: 1},
			}
			c, err := physics.NewChainFromNodes(nodes, p)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.Step()).To(Succeed())
			for _, f := range c.Forces() {
				Expect(f).To(Equal(dynamo.Zero))
			}

			stepN(c, 1000)
			for i, n := range nodes {
				Expect(c.Node(i).Position).To(Equal(n.Position))
				Expect(c.Node(i).Velocity).To(Equal(dynamo.Zero))
			}
		})
	})

	Describe("three-node fiber", func() {
		var p physics.Params

		BeforeEach(func() {
			p = physics.DefaultParams()
			p.K = 1 // two springs of stiffness 2
			p.RestLength = 0
			p.Gravity = 0
			p.Damping = 0
			p.Dt = 0.01
		})

		threeNodes := func(mid dynamo.Vector2D) []dynamo.Node {
			return []dynamo.Node{
				{Position: dynamo.Vec(-1, 0), Mass: 1},
				{Position: mid, Mass: 1},
				{Position: dynamo.Vec(1, 0), Mass: 1},
			}
		}

		It("holds a centered node in balance", func() {
			c, err := physics.NewChainFromNodes(threeNodes(dynamo.Zero), p)
			Expect(err).NotTo(HaveOccurred())

			stepN(c, 100)

			Expect(c.Node(1).Position).To(Equal(dynamo.Zero))
			Expect(c.Forces()[1]).To(Equal(dynamo.Zero))
		})

		It("pulls a displaced node back toward the midpoint", func() {
			c, err := physics.NewChainFromNodes(threeNodes(dynamo.Vec(0.5, 0.3)), p)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.Step()).To(Succeed())

			f := c.Forces()[1]
			Expect(f.X).To(BeNumerically("~", -2, 1e-12))
			Expect(f.Y).To(BeNumerically("~", -1.2, 1e-12))

			mid := c.Node(1)
			Expect(mid.Velocity.X).To(BeNumerically("<", 0))
			Expect(mid.Velocity.Y).To(BeNumerically("<", 0))
			Expect(mid.Position.Mag()).To(BeNumerically("<", dynamo.Vec(0.5, 0.3).Mag()))
		})

		It("lets gravity pull a centered node down", func() {
			p.Gravity = 9.81
			c, err := physics.NewChainFromNodes(threeNodes(dynamo.Zero), p)
			Expect(err).NotTo(HaveOccurred())

			stepN(c, 10)

			Expect(c.Node(1).Position.Y).To(BeNumerically("<", 0))
			Expect(c.Node(1).Position.X).To(BeZero())
			Expect(c.LowestHeight()).To(Equal(c.Node(1).Position.Y))
		})

		It("reports the spring pull on each anchor", func() {
			c, err := physics.NewChainFromNodes(threeNodes(dynamo.Vec(0.5, 0.3)), p)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Step()).To(Succeed())

			f := c.Forces()
			Expect(f[0].X).To(BeNumerically("~", 3, 1e-12))
			Expect(f[2].X).To(BeNumerically("~", -1, 1e-12))
		})
	})

	Describe("energy", func() {
		It("only loses kinetic energy to damping", func() {
			p := physics.DefaultParams()
			p.K = 0
			p.Gravity = 0
			p.Damping = 0.3
			p.Dt = 1e-2

			nodes := make([]dynamo.Node, 6)
			for i := range nodes {
				nodes[i] = dynamo.Node{
					Position: dynamo.Vec(float64(i), 0),
					Velocity: dynamo.Vec(float64(i%3)-1, 0.5*float64(i)),
					Mass:     0.7,
				}
			}
			c, err := physics.NewChainFromNodes(nodes, p)
			Expect(err).NotTo(HaveOccurred())

			prev := c.KineticEnergy()
			Expect(prev).To(BeNumerically(">", 0))
			for i := 0; i < 300; i++ {
				Expect(c.Step()).To(Succeed())
				ke := c.KineticEnergy()
				Expect(ke).To(BeNumerically("<=", prev))
				prev = ke
			}
		})

		It("settles to a lower mechanical energy", func() {
			c, err := physics.NewChain(sagParams())
			Expect(err).NotTo(HaveOccurred())
			e0 := c.TotalEnergy()

			stepN(c, 1000)
			e1 := c.TotalEnergy()
			stepN(c, 3000)
			e2 := c.TotalEnergy()

			Expect(e1).To(BeNumerically("<", e0))
			Expect(e2).To(BeNumerically("<=", e1))
			Expect(c.KineticEnergy()).To(BeNumerically("<", 1e-9))
		})

		It("keeps every spring stretched at rest under load", func() {
			c, err := physics.NewChain(sagParams())
			Expect(err).NotTo(HaveOccurred())
			stepN(c, 4000)

			for _, t := range c.Tensions() {
				Expect(t).To(BeNumerically(">", 0))
			}
			Expect(c.MaxTension()).To(BeNumerically(">=", c.Tensions()[10]))
		})
	})

	Describe("divergence", func() {
		It("surfaces as a sticky ErrDivergence", func() {
			p := sagParams()
			p.Dt = 1

			c, err := physics.NewChain(p)
			Expect(err).NotTo(HaveOccurred())

			var stepErr error
			for i := 0; i < 10000 && stepErr == nil; i++ {
				stepErr = c.Step()
			}
			Expect(stepErr).To(MatchError(dynamo.ErrDivergence))

			var simErr *dynamo.SimulationError
			Expect(stepErr).To(BeAssignableToTypeOf(simErr))
			steps := c.Steps()

			Expect(c.Step()).To(Equal(stepErr))
			Expect(c.Steps()).To(Equal(steps))
			Expect(c.Err()).To(Equal(stepErr))
		})

		It("clears on reset", func() {
			p := sagParams()
			p.Dt = 1
			c, err := physics.NewChain(p)
			Expect(err).NotTo(HaveOccurred())
			for i := 0; i < 10000 && c.Err() == nil; i++ {
				_ = c.Step()
			}
			Expect(c.Err()).To(HaveOccurred())

			c.Reset()

			Expect(c.Err()).NotTo(HaveOccurred())
			Expect(c.Steps()).To(BeZero())
			Expect(c.Time()).To(BeZero())
			Expect(c.Node(10).Position.Y).To(BeZero())
		})
	})

	Describe("parallel stepping", func() {
		It("matches the single-worker result exactly", func() {
			p := physics.DefaultParams()
			p.Subdivisions = 3000
			p.Dt = physics.StableTimestep(p, 0.5)

			p.Workers = 1
			serial, err := physics.NewChain(p)
			Expect(err).NotTo(HaveOccurred())
			p.Workers = 4
			parallel, err := physics.NewChain(p)
			Expect(err).NotTo(HaveOccurred())

			stepN(serial, 200)
			stepN(parallel, 200)

			Expect(parallel.Positions()).To(Equal(serial.Positions()))
			Expect(parallel.Velocities()).To(Equal(serial.Velocities()))
		})
	})

	Describe("snapshots", func() {
		It("are detached copies", func() {
			c, err := physics.NewChain(sagParams())
			Expect(err).NotTo(HaveOccurred())
			stepN(c, 10)

			s := c.Snapshot()
			Expect(s.Step).To(Equal(10))
			Expect(s.Time).To(BeNumerically("~", 0.01, 1e-12))
			Expect(s.LowestHeight).To(Equal(c.LowestHeight()))
			Expect(s.Positions).To(HaveLen(21))

			stepN(c, 10)
			Expect(s.Positions[10]).NotTo(Equal(c.Node(10).Position))
		})

		It("reuse the destination buffers", func() {
			c, err := physics.NewChain(sagParams())
			Expect(err).NotTo(HaveOccurred())

			var s dynamo.Snapshot
			c.SnapshotInto(&s)
			first := &s.Positions[0]
			stepN(c, 5)
			c.SnapshotInto(&s)

			Expect(&s.Positions[0]).To(BeIdenticalTo(first))
			Expect(s.Step).To(Equal(5))
			Expect(math.IsInf(s.LowestHeight, 0)).To(BeFalse())
		})
	})
})
