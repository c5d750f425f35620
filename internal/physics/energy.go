package physics

// KineticEnergy sums 0.5*m*|v|^2 over the interior nodes.
func (c *Chain) KineticEnergy() float64 {
	var ke float64
	for i := 1; i < len(c.nodes)-1; i++ {
		ke += c.nodes[i].KineticEnergy()
	}
	return ke
}

// PotentialEnergy is the elastic energy stored in every spring plus the
// gravitational energy of the interior nodes relative to y=0.
func (c *Chain) PotentialEnergy() float64 {
	k, rest := c.consts.k, c.consts.restLength
	var pe float64
	for i := 0; i < len(c.nodes)-1; i++ {
		ext := c.nodes[i+1].Position.Sub(c.nodes[i].Position).Mag() - rest
		pe += 0.5 * k * ext * ext
	}
	for i := 1; i < len(c.nodes)-1; i++ {
		n := c.nodes[i]
		pe += n.Mass * c.consts.gravity * n.Position.Y
	}
	return pe
}

func (c *Chain) TotalEnergy() float64 {
	return c.KineticEnergy() + c.PotentialEnergy()
}

// Tensions returns the signed scalar tension of each spring at the current
// positions, positive when stretched.
func (c *Chain) Tensions() []float64 {
	k, rest := c.consts.k, c.consts.restLength
	out := make([]float64, len(c.nodes)-1)
	for i := range out {
		out[i] = SpringTension(c.nodes[i], c.nodes[i+1], k, rest)
	}
	return out
}

// MaxTension returns the largest spring tension.
func (c *Chain) MaxTension() float64 {
	tens := c.Tensions()
	max := tens[0]
	for _, t := range tens[1:] {
		if t > max {
			max = t
		}
	}
	return max
}
