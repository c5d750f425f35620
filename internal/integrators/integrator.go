// Package integrators provides time-stepping schemes for node chains.
//
// An integrator advances the nodes in [start, end) by one timestep from an
// already finalized force buffer. Ranges never overlap between concurrent
// calls, so a scheme may be driven from several goroutines at once.
package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/fibersag/internal/dynamo"
)

const (
	SymplecticEuler = "symplectic-euler"
	ForwardEuler    = "euler"
)

type Integrator interface {
	Name() string
	Integrate(nodes []dynamo.Node, forces []dynamo.Vector2D, dt float64, start, end int)
}

var registry = map[string]func() Integrator{
	SymplecticEuler: func() Integrator { return NewSemiImplicitEuler() },
	ForwardEuler:    func() Integrator { return NewEuler() },
}

// New returns the integrator registered under name. An empty name selects
// the semi-implicit scheme.
func New(name string) (Integrator, error) {
	if name == "" {
		name = SymplecticEuler
	}
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s (available: %v)", name, Names())
	}
	return fn(), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
