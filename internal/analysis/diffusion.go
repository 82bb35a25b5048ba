package analysis

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat"
)

var ErrTooFewSamples = errors.New("analysis: need at least two samples")

// DiffusionFit is a least-squares line MSD = Offset + Slope t.
type DiffusionFit struct {
	Slope    float64
	Offset   float64
	RSquared float64
	// D is Slope / (2 dim).
	D float64
}

// FitDiffusion fits MSD(t) and converts the slope to a diffusion coefficient
// for dim spatial dimensions.
func FitDiffusion(times, msd []float64, dim int) (DiffusionFit, error) {
	if len(times) != len(msd) {
		return DiffusionFit{}, fmt.Errorf("analysis: %d times for %d msd samples", len(times), len(msd))
	}
	if len(times) < 2 {
		return DiffusionFit{}, ErrTooFewSamples
	}
	if dim <= 0 {
		return DiffusionFit{}, fmt.Errorf("analysis: dimension must be positive, got %d", dim)
	}
	offset, slope := stat.LinearRegression(times, msd, nil, false)
	return DiffusionFit{
		Slope:    slope,
		Offset:   offset,
		RSquared: stat.RSquared(times, msd, nil, offset, slope),
		D:        slope / float64(2*dim),
	}, nil
}

// StokesEinstein is kT / (6 pi eta a) written with the self mobility mu.
func StokesEinstein(temperature, mu float64) float64 {
	return temperature * mu
}
