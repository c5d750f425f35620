package analysis

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/fibersag/internal/physics"
)

// Catenary is the equilibrium of a symmetric elastic cable hanging between
// two supports at the same height.
type Catenary struct {
	Sag               float64 // depth of the lowest point below the supports
	HorizontalTension float64
	SupportTension    float64
	StretchedLength   float64
}

const catenaryIterations = 200

var ErrNoEquilibrium = errors.New("analysis: no catenary equilibrium")

// ElasticCatenary solves for the horizontal tension H of a cable with
// unstretched length restLength, axial stiffness EA and total weight W
// spanning span. With s the unstretched arc length from the lowest point
// and w = W/restLength,
//
//	x(s) = H*s/EA + (H/w)*asinh(w*s/H)
//	y(s) = w*s^2/(2*EA) + (H/w)*(sqrt(1+(w*s/H)^2) - 1)
//
// and H is found by bisection on x(restLength/2) = span/2.
func ElasticCatenary(span, restLength, axialStiffness, weight float64) (Catenary, error) {
	switch {
	case !(span > 0):
		return Catenary{}, fmt.Errorf("%w: span=%g", ErrNoEquilibrium, span)
	case !(restLength > 0):
		return Catenary{}, fmt.Errorf("%w: rest length=%g", ErrNoEquilibrium, restLength)
	case !(axialStiffness > 0):
		return Catenary{}, fmt.Errorf("%w: axial stiffness=%g", ErrNoEquilibrium, axialStiffness)
	case weight < 0 || math.IsNaN(weight):
		return Catenary{}, fmt.Errorf("%w: weight=%g", ErrNoEquilibrium, weight)
	}

	ea := axialStiffness
	half := span / 2
	s := restLength / 2

	if weight == 0 {
		h := ea * (span - restLength) / restLength
		if h < 0 {
			// slack and weightless: any shape shorter than the span works
			h = 0
		}
		return Catenary{HorizontalTension: h, SupportTension: h, StretchedLength: math.Max(span, restLength)}, nil
	}

	w := weight / restLength
	reach := func(h float64) float64 {
		return h*s/ea + (h/w)*math.Asinh(w*s/h)
	}

	lo, hi := 0.0, weight
	for reach(hi) < half {
		hi *= 2
		if math.IsInf(hi, 0) {
			return Catenary{}, fmt.Errorf("%w: tension unbounded", ErrNoEquilibrium)
		}
	}
	for i := 0; i < catenaryIterations; i++ {
		mid := 0.5 * (lo + hi)
		if reach(mid) < half {
			lo = mid
		} else {
			hi = mid
		}
		if hi-lo <= 1e-15*hi {
			break
		}
	}
	h := 0.5 * (lo + hi)

	u := w * s / h
	sag := w*s*s/(2*ea) + (h/w)*(math.Sqrt(1+u*u)-1)

	// integral of T(s)/EA over the arc, T = sqrt(H^2 + (w s)^2)
	tensionIntegral := 0.5*s*math.Sqrt(h*h+w*w*s*s) + h*h/(2*w)*math.Asinh(u)

	return Catenary{
		Sag:               sag,
		HorizontalTension: h,
		SupportTension:    math.Hypot(h, weight/2),
		StretchedLength:   restLength + 2*tensionIntegral/ea,
	}, nil
}

// PredictSag evaluates the catenary for the chain described by p. The
// fiber stiffness K is a spring constant for the whole length, so the
// axial stiffness is K*RestLength; only the weight of the free nodes hangs
// on the cable.
func PredictSag(p physics.Params) (Catenary, error) {
	return ElasticCatenary(p.Span(), p.RestLength, p.K*p.RestLength, p.SuspendedWeight())
}
