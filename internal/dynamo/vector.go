package dynamo

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Vector2D is a planar vector. All methods return new values.
type Vector2D struct {
	X, Y float64
}

// Zero is the zero vector.
var Zero = Vector2D{}

func Vec(x, y float64) Vector2D { return Vector2D{X: x, Y: y} }

func (v Vector2D) r2() r2.Vec { return r2.Vec{X: v.X, Y: v.Y} }

func fromR2(p r2.Vec) Vector2D { return Vector2D{X: p.X, Y: p.Y} }

func (v Vector2D) Add(o Vector2D) Vector2D { return fromR2(r2.Add(v.r2(), o.r2())) }

func (v Vector2D) Sub(o Vector2D) Vector2D { return fromR2(r2.Sub(v.r2(), o.r2())) }

func (v Vector2D) Neg() Vector2D { return Vector2D{X: -v.X, Y: -v.Y} }

func (v Vector2D) Scale(s float64) Vector2D { return fromR2(r2.Scale(s, v.r2())) }

// Div divides both components by s. Callers must guard s != 0.
func (v Vector2D) Div(s float64) Vector2D { return Vector2D{X: v.X / s, Y: v.Y / s} }

func (v Vector2D) Dot(o Vector2D) float64 { return r2.Dot(v.r2(), o.r2()) }

// Mag returns the Euclidean norm.
func (v Vector2D) Mag() float64 { return r2.Norm(v.r2()) }

// Mag2 returns the squared norm.
func (v Vector2D) Mag2() float64 { return r2.Norm2(v.r2()) }

// Unit returns v scaled to length one, or the zero vector when v has no
// direction.
func (v Vector2D) Unit() Vector2D {
	m := v.Mag()
	if m == 0 {
		return Zero
	}
	return v.Div(m)
}

func (v Vector2D) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) && !math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}

func (v Vector2D) String() string {
	return fmt.Sprintf("(%g, %g)", v.X, v.Y)
}
