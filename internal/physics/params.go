package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/fibersag/internal/dynamo"
)

const (
	DefaultSpan         = 4.0
	DefaultStiffness    = 5000.0
	DefaultGravity      = 9.81
	DefaultDamping      = 0.0001
	DefaultMass         = 1.0
	DefaultSubdivisions = 1000
)

// Params holds the physical constants of one fiber. K is the stiffness of
// the whole fiber; the n springs in series each get K*n. RestLength is the
// unstretched length of the whole fiber; each spring gets RestLength/n.
// TotalMass is spread evenly over all n+1 nodes.
type Params struct {
	LeftX, RightX float64
	K             float64
	RestLength    float64
	Gravity       float64
	Damping       float64
	Dt            float64
	TotalMass     float64
	Subdivisions  int
	Integrator    string // empty selects the semi-implicit scheme
	Workers       int    // 0 = GOMAXPROCS
}

func DefaultParams() Params {
	return Params{
		LeftX:        -DefaultSpan / 2,
		RightX:       DefaultSpan / 2,
		K:            DefaultStiffness,
		RestLength:   DefaultSpan,
		Gravity:      DefaultGravity,
		Damping:      DefaultDamping,
		TotalMass:    DefaultMass,
		Subdivisions: DefaultSubdivisions,
	}
}

func (p Params) Span() float64 { return math.Abs(p.RightX - p.LeftX) }

// SpringConstant is the stiffness of a single segment.
func (p Params) SpringConstant() float64 { return p.K * float64(p.Subdivisions) }

// SegmentRestLength is the unstretched length of a single segment.
func (p Params) SegmentRestLength() float64 { return p.RestLength / float64(p.Subdivisions) }

func (p Params) NodeMass() float64 { return p.TotalMass / float64(p.Subdivisions+1) }

// SuspendedWeight is the weight carried by the free nodes; the anchors hold
// their own share.
func (p Params) SuspendedWeight() float64 {
	return p.NodeMass() * float64(p.Subdivisions-1) * p.Gravity
}

// Validate checks the parameters used by the straight-line layout.
func (p Params) Validate() error {
	if p.Subdivisions < 1 {
		return fmt.Errorf("%w: subdivisions=%d", dynamo.ErrInvalidTopology, p.Subdivisions)
	}
	if err := p.validateConstants(); err != nil {
		return err
	}
	if !finite(p.LeftX) || !finite(p.RightX) {
		return dynamo.ParamError("endpoints", p.RightX-p.LeftX, "must be finite")
	}
	if p.LeftX == p.RightX {
		return dynamo.ParamError("left_x", p.LeftX, "must differ from right_x")
	}
	if !finite(p.TotalMass) || p.TotalMass <= 0 {
		return dynamo.ParamError("total_mass", p.TotalMass, "must be positive")
	}
	return nil
}

func (p Params) validateConstants() error {
	switch {
	case !finite(p.K) || p.K < 0:
		return dynamo.ParamError("k", p.K, "must be non-negative")
	case !finite(p.Dt) || p.Dt <= 0:
		return dynamo.ParamError("dt", p.Dt, "must be positive")
	case !finite(p.RestLength) || p.RestLength < 0:
		return dynamo.ParamError("rest_length", p.RestLength, "must be non-negative")
	case !finite(p.Damping) || p.Damping < 0:
		return dynamo.ParamError("damping", p.Damping, "must be non-negative")
	case !finite(p.Gravity):
		return dynamo.ParamError("gravity", p.Gravity, "must be finite")
	}
	return nil
}

// CriticalTimestep estimates the largest stable dt from the segment
// oscillation frequency: 1/sqrt(K*n / (m_node * L0/n)). With a zero rest
// length the initial segment length stands in for L0/n.
func CriticalTimestep(p Params) float64 {
	n := float64(p.Subdivisions)
	if p.K == 0 || n < 1 {
		return math.Inf(1)
	}
	seg := p.SegmentRestLength()
	if seg == 0 {
		seg = p.Span() / n
	}
	if seg == 0 || p.TotalMass <= 0 {
		return math.Inf(1)
	}
	return 1 / math.Sqrt(p.K*n/(p.NodeMass()*seg))
}

// StableTimestep scales the critical timestep by a safety factor.
func StableTimestep(p Params, factor float64) float64 {
	return factor * CriticalTimestep(p)
}

// StraightLayout places n+1 nodes evenly between the endpoints at y=0.
func StraightLayout(p Params) []dynamo.Node {
	n := p.Subdivisions
	m := p.NodeMass()
	nodes := make([]dynamo.Node, n+1)
	for i := range nodes {
		t := float64(i) / float64(n)
		nodes[i] = dynamo.Node{
			Position: dynamo.Vec(p.LeftX*(1-t)+p.RightX*t, 0),
			Mass:     m,
		}
	}
	return nodes
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// SaggedLayout is StraightLayout with the interior nodes lowered onto a
// parabola of the given depth at mid-span. The anchors stay at y=0.
func SaggedLayout(p Params, depth float64) []dynamo.Node {
	nodes := StraightLayout(p)
	n := float64(p.Subdivisions)
	for i := 1; i < len(nodes)-1; i++ {
		t := float64(i) / n
		nodes[i].Position.Y = -4 * depth * t * (1 - t)
	}
	return nodes
}
