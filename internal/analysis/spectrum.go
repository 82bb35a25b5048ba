package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/stat"
)

// PowerSpectrum returns the one-sided periodogram |X_k|^2 / n for
// k = 0 .. n/2. Any length is accepted.
func PowerSpectrum(data []float64) []float64 {
	n := len(data)
	if n == 0 {
		return nil
	}
	coeffs := fft.FFTReal(data)
	ps := make([]float64, n/2+1)
	for k := range ps {
		a := cmplx.Abs(coeffs[k])
		ps[k] = a * a / float64(n)
	}
	return ps
}

// SpectralFlatness is the ratio of the geometric to the arithmetic mean of
// the periodogram, skipping the DC bin. It approaches exp(-gamma) ~ 0.56
// for white noise and zero for a pure tone.
func SpectralFlatness(ps []float64) float64 {
	if len(ps) < 2 {
		return 0
	}
	bins := ps[1:]
	var logSum float64
	for _, p := range bins {
		if p <= 0 {
			return 0
		}
		logSum += math.Log(p)
	}
	mean := stat.Mean(bins, nil)
	if mean == 0 {
		return 0
	}
	return math.Exp(logSum/float64(len(bins))) / mean
}
