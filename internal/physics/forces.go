package physics

import "github.com/san-kum/fibersag/internal/dynamo"

// SpringForce returns the force the spring between a and b exerts on a.
// A stretched spring pulls a toward b; the reaction on b is the exact
// negation of the returned value.
func SpringForce(a, b dynamo.Node, k, restLength float64) dynamo.Vector2D {
	d := b.Position.Sub(a.Position)
	mag := k * (d.Mag() - restLength)
	return d.Unit().Scale(mag)
}

// SpringTension returns the signed scalar tension, positive when stretched.
func SpringTension(a, b dynamo.Node, k, restLength float64) float64 {
	return k * (b.Position.Sub(a.Position).Mag() - restLength)
}

func GravityForce(n dynamo.Node, g float64) dynamo.Vector2D {
	return dynamo.Vec(0, -g).Scale(n.Mass)
}

// DampingForce is linear viscous drag opposing the current velocity.
func DampingForce(n dynamo.Node, c float64) dynamo.Vector2D {
	return n.Velocity.Scale(-c)
}
