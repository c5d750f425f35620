// Package dynamo provides the core primitives shared by the fiber simulation.
//
// The package defines the value types every other layer speaks:
//
//   - [Vector2D]: immutable planar vector with named arithmetic
//   - [Node]: a point mass with position and velocity
//   - [Snapshot]: read-only copy of the chain between steps
//   - [Metric], [Observer]: hooks driven by the simulator
//   - [Config], [Result]: simulation run settings and outcome
//
// # Example
//
//	chain, _ := physics.NewChain(params)
//	s := sim.New(chain, dynamo.DefaultConfig())
//	result, err := s.Run(ctx)
//
// # Thread Safety
//
// Vector2D and Snapshot values are safe to share once created. Chains are
// NOT thread-safe; the only parallelism is inside a single step, through
// [ParallelFor], with a full barrier between phases.
package dynamo
