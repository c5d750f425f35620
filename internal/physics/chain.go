package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/fibersag/internal/dynamo"
	"github.com/san-kum/fibersag/internal/integrators"
)

// minChunk keeps small chains on the calling goroutine.
const minChunk = 256

// constants are the per-segment values derived from Params at construction.
type constants struct {
	k, restLength float64
	gravity       float64
	damping       float64
	dt            float64
}

// Chain is the simulation state: an ordered sequence of nodes whose first
// and last entries are pinned anchors, plus the force buffer rebuilt every
// step. It is not safe for concurrent use.
type Chain struct {
	nodes   []dynamo.Node
	initial []dynamo.Node
	forces  []dynamo.Vector2D
	tension []dynamo.Vector2D // force of spring i on node i
	consts  constants
	integ   integrators.Integrator
	workers int

	steps int
	time  float64
	err   error
}

// NewChain builds a chain in the straight-line layout between the
// endpoints described by p.
func NewChain(p Params) (*Chain, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return newChain(StraightLayout(p), p)
}

// NewChainFromNodes builds a chain from an explicit node sequence. The
// first and last node become the anchors. Subdivisions and TotalMass in p
// are ignored; per-segment stiffness and rest length use len(nodes)-1.
func NewChainFromNodes(nodes []dynamo.Node, p Params) (*Chain, error) {
	if len(nodes) < 2 {
		return nil, fmt.Errorf("%w: got %d nodes", dynamo.ErrInvalidTopology, len(nodes))
	}
	if err := p.validateConstants(); err != nil {
		return nil, err
	}
	for i, n := range nodes {
		if !finite(n.Mass) || n.Mass <= 0 {
			return nil, dynamo.ParamError(fmt.Sprintf("nodes[%d].mass", i), n.Mass, "must be positive")
		}
		if !n.IsFinite() {
			return nil, dynamo.ParamError(fmt.Sprintf("nodes[%d].position", i), math.NaN(), "must be finite")
		}
	}
	p.Subdivisions = len(nodes) - 1
	return newChain(append([]dynamo.Node(nil), nodes...), p)
}

func newChain(nodes []dynamo.Node, p Params) (*Chain, error) {
	integ, err := integrators.New(p.Integrator)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dynamo.ErrInvalidParameter, err)
	}

	return &Chain{
		nodes:   nodes,
		initial: append([]dynamo.Node(nil), nodes...),
		forces:  make([]dynamo.Vector2D, len(nodes)),
		tension: make([]dynamo.Vector2D, len(nodes)-1),
		consts: constants{
			k:          p.SpringConstant(),
			restLength: p.SegmentRestLength(),
			gravity:    p.Gravity,
			damping:    p.Damping,
			dt:         p.Dt,
		},
		integ:   integ,
		workers: dynamo.Workers(p.Workers),
	}, nil
}

// Step advances the chain by exactly one dt. After a divergence every
// further call returns the same error without touching the nodes.
func (c *Chain) Step() error {
	if c.err != nil {
		return c.err
	}

	n := len(c.nodes)

	// Phase 1: one force per spring, read from pre-step positions.
	dynamo.ParallelFor(n-1, minChunk, c.workers, c.springPass)

	// Phase 2: each node sums its own slot, so there are no shared writes.
	dynamo.ParallelFor(n, minChunk, c.workers, c.accumulate)

	// Phase 3: integrate interior nodes only; the anchors stay pinned.
	if n > 2 {
		dynamo.ParallelFor(n-2, minChunk, c.workers, c.integrate)
	}

	c.steps++
	c.time += c.consts.dt

	for i := 1; i < n-1; i++ {
		if !c.nodes[i].IsFinite() {
			c.err = &dynamo.SimulationError{
				Step:    c.steps,
				Time:    c.time,
				Node:    i,
				Wrapped: dynamo.ErrDivergence,
			}
			return c.err
		}
	}
	return nil
}

func (c *Chain) springPass(start, end int) {
	k, rest := c.consts.k, c.consts.restLength
	for i := start; i < end; i++ {
		c.tension[i] = SpringForce(c.nodes[i], c.nodes[i+1], k, rest)
	}
}

func (c *Chain) accumulate(start, end int) {
	last := len(c.nodes) - 1
	for i := start; i < end; i++ {
		f := dynamo.Zero
		if i > 0 {
			f = f.Sub(c.tension[i-1])
		}
		if i < last {
			f = f.Add(c.tension[i])
		}
		if i > 0 && i < last {
			node := c.nodes[i]
			f = f.Add(GravityForce(node, c.consts.gravity))
			f = f.Add(DampingForce(node, c.consts.damping))
		}
		c.forces[i] = f
	}
}

func (c *Chain) integrate(start, end int) {
	c.integ.Integrate(c.nodes, c.forces, c.consts.dt, start+1, end+1)
}

// Reset restores the construction-time nodes and clears step count, time
// and any divergence.
func (c *Chain) Reset() {
	copy(c.nodes, c.initial)
	for i := range c.forces {
		c.forces[i] = dynamo.Zero
	}
	c.steps, c.time, c.err = 0, 0, nil
}

func (c *Chain) Len() int { return len(c.nodes) }

// Steps returns the number of completed steps.
func (c *Chain) Steps() int { return c.steps }

// Time returns the simulated time, steps*dt accumulated.
func (c *Chain) Time() float64 { return c.time }

func (c *Chain) Dt() float64 { return c.consts.dt }

// Err returns the sticky divergence error, if any.
func (c *Chain) Err() error { return c.err }

func (c *Chain) IntegratorName() string { return c.integ.Name() }

// Node returns a copy of node i.
func (c *Chain) Node(i int) dynamo.Node { return c.nodes[i] }

func (c *Chain) Positions() []dynamo.Vector2D {
	out := make([]dynamo.Vector2D, len(c.nodes))
	for i, n := range c.nodes {
		out[i] = n.Position
	}
	return out
}

func (c *Chain) Velocities() []dynamo.Vector2D {
	out := make([]dynamo.Vector2D, len(c.nodes))
	for i, n := range c.nodes {
		out[i] = n.Velocity
	}
	return out
}

// Forces returns a copy of the force buffer from the last step. The anchor
// entries hold the spring pull on each support.
func (c *Chain) Forces() []dynamo.Vector2D {
	return append([]dynamo.Vector2D(nil), c.forces...)
}

// LowestHeight returns the minimum y over all nodes.
func (c *Chain) LowestHeight() float64 {
	low := math.Inf(1)
	for _, n := range c.nodes {
		if n.Position.Y < low {
			low = n.Position.Y
		}
	}
	return low
}

// Snapshot returns a fresh copy of the current state.
func (c *Chain) Snapshot() dynamo.Snapshot {
	var s dynamo.Snapshot
	c.SnapshotInto(&s)
	return s
}

// SnapshotInto fills dst, reusing its slices when they are large enough.
func (c *Chain) SnapshotInto(dst *dynamo.Snapshot) {
	n := len(c.nodes)
	if cap(dst.Positions) < n {
		dst.Positions = make([]dynamo.Vector2D, n)
	}
	if cap(dst.Velocities) < n {
		dst.Velocities = make([]dynamo.Vector2D, n)
	}
	dst.Positions = dst.Positions[:n]
	dst.Velocities = dst.Velocities[:n]
	for i, node := range c.nodes {
		dst.Positions[i] = node.Position
		dst.Velocities[i] = node.Velocity
	}
	dst.Step = c.steps
	dst.Time = c.time
	dst.LowestHeight = c.LowestHeight()
	dst.KineticEnergy = c.KineticEnergy()
}
