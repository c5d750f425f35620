// Package sim drives a [physics.Chain] toward equilibrium.
//
// A [Simulator] steps the chain, samples its lowest point every
// SampleEvery steps and stops once the last Window samples agree to within
// Threshold. Cancellation is checked between steps only; a step always
// runs to completion.
//
//	s := sim.New(chain, dynamo.DefaultConfig())
//	res, err := s.Run(ctx)
package sim
