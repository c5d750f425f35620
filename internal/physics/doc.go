// Package physics implements the elastic fiber model: a planar chain of
// point masses joined by axial springs, hanging between two pinned anchors
// under gravity with linear viscous damping.
//
//   - [Params]: physical constants, fixed at construction
//   - [SpringForce], [GravityForce], [DampingForce]: the force model
//   - [Chain]: owns the nodes and the force buffer and advances them with [Chain.Step]
//
// # Step phases
//
// Each step runs three data-parallel phases separated by full barriers:
// spring tensions from the pre-step positions, per-node force
// accumulation, and integration of the interior nodes. No phase reads a
// value written by a later phase of the same step, so results do not depend
// on the worker count.
//
// # Timestep
//
// The explicit scheme is only stable below [CriticalTimestep]. The chain
// does not enforce it; a too large dt shows up as [dynamo.ErrDivergence].
//
//	p := physics.DefaultParams()
//	p.Dt = physics.StableTimestep(p, 0.5)
//	chain, err := physics.NewChain(p)
package physics
