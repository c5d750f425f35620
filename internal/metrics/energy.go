package metrics

import (
	"math"

	"github.com/san-kum/fibersag/internal/dynamo"
)

// KineticEnergy tracks the interior kinetic energy seen at sample points.
// Value reports the most recent sample; Peak the largest.
type KineticEnergy struct {
	name    string
	latest  float64
	peak    float64
	samples int
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (k *KineticEnergy) Name() string { return k.name }

func (k *KineticEnergy) Observe(s dynamo.Snapshot) {
	k.latest = s.KineticEnergy
	k.peak = math.Max(k.peak, s.KineticEnergy)
	k.samples++
}

func (k *KineticEnergy) Value() float64 { return k.latest }

func (k *KineticEnergy) Peak() float64 { return k.peak }

func (k *KineticEnergy) Reset() {
	k.latest = 0
	k.peak = 0
	k.samples = 0
}

// Overshoot records how far the lowest height dipped below its final value:
// the fiber swings past its equilibrium before damping settles it.
type Overshoot struct {
	name    string
	lowest  float64
	latest  float64
	samples int
}

func NewOvershoot() *Overshoot {
	return &Overshoot{name: "overshoot", lowest: math.Inf(1)}
}

func (o *Overshoot) Name() string { return o.name }

func (o *Overshoot) Observe(s dynamo.Snapshot) {
	o.lowest = math.Min(o.lowest, s.LowestHeight)
	o.latest = s.LowestHeight
	o.samples++
}

func (o *Overshoot) Value() float64 {
	if o.samples == 0 {
		return 0
	}
	return o.latest - o.lowest
}

func (o *Overshoot) Reset() {
	o.lowest = math.Inf(1)
	o.latest = 0
	o.samples = 0
}
