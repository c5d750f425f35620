package metrics

import (
	"math"

	"github.com/san-kum/fibersag/internal/dynamo"
)

// Stability is the fraction of samples whose lowest height lies within band
// of the final lowest height. A run that settles early scores close to 1; a
// run still swinging at the end scores close to 0. Non-finite heights are
// never inside the band.
type Stability struct {
	name    string
	band    float64
	heights []float64
}

func NewStability(band float64) *Stability {
	return &Stability{
		name: "stability",
		band: band,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(snap dynamo.Snapshot) {
	s.heights = append(s.heights, snap.LowestHeight)
}

func (s *Stability) Value() float64 {
	if len(s.heights) == 0 {
		return 0
	}
	final := s.heights[len(s.heights)-1]
	inside := 0
	for _, h := range s.heights {
		if math.Abs(h-final) <= s.band {
			inside++
		}
	}
	return float64(inside) / float64(len(s.heights))
}

func (s *Stability) Reset() {
	s.heights = s.heights[:0]
}
