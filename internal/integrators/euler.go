package integrators

import "github.com/san-kum/fibersag/internal/dynamo"

// SemiImplicitEuler updates velocity from the accumulated force, then
// position from the new velocity. It is the default scheme for the chain.
type SemiImplicitEuler struct{}

func NewSemiImplicitEuler() *SemiImplicitEuler {
	return &SemiImplicitEuler{}
}

func (e *SemiImplicitEuler) Name() string { return SymplecticEuler }

func (e *SemiImplicitEuler) Integrate(nodes []dynamo.Node, forces []dynamo.Vector2D, dt float64, start, end int) {
	for i := start; i < end; i++ {
		n := &nodes[i]
		acc := forces[i].Div(n.Mass)
		n.Velocity = n.Velocity.Add(acc.Scale(dt))
		n.Position = n.Position.Add(n.Velocity.Scale(dt))
	}
}

// Euler is the plain forward scheme: position advances with the velocity
// from the start of the step. It gains energy on undamped springs and is
// kept for comparison runs.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Name() string { return ForwardEuler }

func (e *Euler) Integrate(nodes []dynamo.Node, forces []dynamo.Vector2D, dt float64, start, end int) {
	for i := start; i < end; i++ {
		n := &nodes[i]
		acc := forces[i].Div(n.Mass)
		n.Position = n.Position.Add(n.Velocity.Scale(dt))
		n.Velocity = n.Velocity.Add(acc.Scale(dt))
	}
}
