package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for chain construction and stepping.
var (
	// ErrInvalidTopology indicates a chain with fewer than two nodes.
	ErrInvalidTopology = errors.New("dynamo: invalid topology (need at least 2 nodes)")

	// ErrInvalidParameter indicates a physical parameter outside its valid range.
	ErrInvalidParameter = errors.New("dynamo: invalid physical parameter")

	// ErrDivergence indicates a node state became NaN or Inf during integration.
	ErrDivergence = errors.New("dynamo: numerical divergence (NaN or Inf detected)")
)

// SimulationError wraps an error with the step at which it surfaced.
type SimulationError struct {
	Step    int
	Time    float64
	Node    int
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.6f) node %d: %v", e.Step, e.Time, e.Node, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}

// ParamError builds an ErrInvalidParameter naming the offending field.
func ParamError(field string, value float64, reason string) error {
	return fmt.Errorf("%w: %s=%g %s", ErrInvalidParameter, field, value, reason)
}
