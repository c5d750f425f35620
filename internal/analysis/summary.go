package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/fibersag/internal/dynamo"
)

type Summary struct {
	N      int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
	Median float64
}

// Summarize describes the sampled heights of a run.
func Summarize(samples []dynamo.Sample) Summary {
	if len(samples) == 0 {
		return Summary{}
	}

	h := Heights(samples)
	mean, std := stat.MeanStdDev(h, nil)
	if len(h) < 2 {
		std = 0
	}

	sorted := append([]float64(nil), h...)
	sort.Float64s(sorted)

	return Summary{
		N:      len(h),
		Mean:   mean,
		StdDev: std,
		Min:    floats.Min(h),
		Max:    floats.Max(h),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
	}
}

// Heights extracts the height column.
func Heights(samples []dynamo.Sample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.Height
	}
	return out
}

// SettlingIndex returns the index of the first sample after which every
// height stays within tol of the last one, or -1 for an empty history.
func SettlingIndex(samples []dynamo.Sample, tol float64) int {
	if len(samples) == 0 {
		return -1
	}
	final := samples[len(samples)-1].Height
	idx := len(samples) - 1
	for i := len(samples) - 1; i >= 0; i-- {
		if math.Abs(samples[i].Height-final) > tol {
			break
		}
		idx = i
	}
	return idx
}
