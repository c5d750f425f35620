package metrics

import "gonum.org/v1/gonum/stat"

// Convergence keeps a fixed window of recent samples and reports their
// spread. A small standard deviation over the window is taken as the sign
// of a steady state. It is a heuristic: a slow monotone drift smaller than
// the threshold per window is also reported as converged.
type Convergence struct {
	buf  []float64
	next int
	n    int
}

// NewConvergence returns a monitor over the last window samples. Windows
// smaller than 2 are raised to 2.
func NewConvergence(window int) *Convergence {
	if window < 2 {
		window = 2
	}
	return &Convergence{buf: make([]float64, window)}
}

// Observe appends v, evicting the oldest sample once the window is full.
func (c *Convergence) Observe(v float64) {
	c.buf[c.next] = v
	c.next = (c.next + 1) % len(c.buf)
	if c.n < len(c.buf) {
		c.n++
	}
}

func (c *Convergence) Window() int { return len(c.buf) }

func (c *Convergence) Len() int { return c.n }

func (c *Convergence) Full() bool { return c.n == len(c.buf) }

// Samples returns the retained samples, oldest first.
func (c *Convergence) Samples() []float64 {
	out := make([]float64, c.n)
	start := (c.next - c.n + len(c.buf)) % len(c.buf)
	for i := range out {
		out[i] = c.buf[(start+i)%len(c.buf)]
	}
	return out
}

// StdDev returns the sample standard deviation of the retained values, or
// 0 with fewer than two samples.
func (c *Convergence) StdDev() float64 {
	if c.n < 2 {
		return 0
	}
	return stat.StdDev(c.buf[:c.n], nil)
}

// Mean returns the mean of the retained values.
func (c *Convergence) Mean() float64 {
	if c.n == 0 {
		return 0
	}
	return stat.Mean(c.buf[:c.n], nil)
}

// IsConverged reports whether the window is full and its standard
// deviation is below threshold.
func (c *Convergence) IsConverged(threshold float64) bool {
	return c.Full() && c.StdDev() < threshold
}

func (c *Convergence) Reset() {
	c.next, c.n = 0, 0
}
