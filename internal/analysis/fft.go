package analysis

import (
	"errors"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

var ErrTooFewSamples = errors.New("analysis: need at least 4 samples")

// FFT returns the one-sided spectrum of a real sequence, len(data)/2+1
// coefficients.
func FFT(data []float64) []complex128 {
	if len(data) == 0 {
		return nil
	}
	return fourier.NewFFT(len(data)).Coefficients(nil, data)
}

// PowerSpectrum returns |X_k|^2/n for the one-sided spectrum.
func PowerSpectrum(data []float64) []float64 {
	coeff := FFT(data)
	ps := make([]float64, len(coeff))
	n := float64(len(data))

	for i, c := range coeff {
		a := cmplx.Abs(c)
		ps[i] = a * a / n
	}

	return ps
}

// DominantFrequency returns the frequency in Hz of the strongest non-zero
// component of samples taken every sampleInterval seconds. The mean is
// removed first, so a constant signal reports 0.
func DominantFrequency(samples []float64, sampleInterval float64) (float64, error) {
	n := len(samples)
	if n < 4 {
		return 0, ErrTooFewSamples
	}

	mean := stat.Mean(samples, nil)
	centered := make([]float64, n)
	for i, v := range samples {
		centered[i] = v - mean
	}

	fft := fourier.NewFFT(n)
	coeff := fft.Coefficients(nil, centered)

	best, bestPow := 0, 0.0
	for i := 1; i < len(coeff); i++ {
		a := cmplx.Abs(coeff[i])
		if p := a * a; p > bestPow {
			best, bestPow = i, p
		}
	}
	if best == 0 {
		return 0, nil
	}
	return fft.Freq(best) / sampleInterval, nil
}
