package analysis

import (
	"math"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeanSquareDisplacement(t *testing.T) {
	origin := []float64{0, 0, 0, 1, 1, 1}
	current := []float64{1, 0, 0, 1, 3, 1}
	msd, err := MeanSquareDisplacement(origin, current)
	require.NoError(t, err)
	assert.Equal(t, 2.5, msd)

	_, err = MeanSquareDisplacement(origin, current[:3])
	assert.Error(t, err)
	_, err = MeanSquareDisplacement(nil, nil)
	assert.Error(t, err)
}

func TestMeanDisplacement(t *testing.T) {
	drift, err := MeanDisplacement([]float64{0, 0, 0, 0, 0, 0}, []float64{1, 0, -2, 3, 0, -4})
	require.NoError(t, err)
	assert.Equal(t, [3]float64{2, 0, -3}, drift)
}

func TestFitDiffusionExactLine(t *testing.T) {
	times := []float64{0, 1, 2, 3, 4}
	msd := make([]float64, len(times))
	for i, tt := range times {
		msd[i] = 0.5 + 6*1.5*tt
	}
	fit, err := FitDiffusion(times, msd, 3)
	require.NoError(t, err)
	assert.InDelta(t, 9, fit.Slope, 1e-12)
	assert.InDelta(t, 0.5, fit.Offset, 1e-12)
	assert.InDelta(t, 1.5, fit.D, 1e-12)
	assert.InDelta(t, 1, fit.RSquared, 1e-12)
}

func TestFitDiffusionErrors(t *testing.T) {
	_, err := FitDiffusion([]float64{1}, []float64{1}, 3)
	assert.ErrorIs(t, err, ErrTooFewSamples)
	_, err = FitDiffusion([]float64{1, 2}, []float64{1}, 3)
	assert.Error(t, err)
	_, err = FitDiffusion([]float64{1, 2}, []float64{1, 2}, 0)
	assert.Error(t, err)
}

func TestStokesEinstein(t *testing.T) {
	mu := 1 / (6 * math.Pi * 2 * 0.5)
	assert.InDelta(t, 3*mu, StokesEinstein(3, mu), 1e-15)
}

func TestPowerSpectrumTone(t *testing.T) {
	n := 64
	data := make([]float64, n)
	for i := range data {
		data[i] = math.Cos(2 * math.Pi * 8 * float64(i) / float64(n))
	}
	ps := PowerSpectrum(data)
	require.Len(t, ps, n/2+1)

	peak := 0
	for k := range ps {
		if ps[k] > ps[peak] {
			peak = k
		}
	}
	assert.Equal(t, 8, peak)
	assert.InDelta(t, float64(n)/4, ps[8], 1e-9)
	assert.Less(t, SpectralFlatness(ps), 0.01)
}

func TestPowerSpectrumParseval(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 3))
	data := make([]float64, 100)
	var energy float64
	for i := range data {
		data[i] = rng.NormFloat64()
		energy += data[i] * data[i]
	}
	ps := PowerSpectrum(data)

	// Interior bins appear twice in the two-sided spectrum.
	total := ps[0] + ps[len(ps)-1]
	for _, p := range ps[1 : len(ps)-1] {
		total += 2 * p
	}
	assert.InDelta(t, energy, total, 1e-6)
}

func TestSpectralFlatnessWhiteNoise(t *testing.T) {
	rng := rand.New(rand.NewPCG(8, 1))
	data := make([]float64, 4096)
	for i := range data {
		data[i] = rng.NormFloat64()
	}
	flat := SpectralFlatness(PowerSpectrum(data))
	assert.InDelta(t, math.Exp(-0.5772156649), flat, 0.06)

	assert.Zero(t, SpectralFlatness(nil))
	assert.Nil(t, PowerSpectrum(nil))
}

func TestProjection(t *testing.T) {
	p, err := Project([]float64{0, 1, 2, 3, 4, 5}, 0, 2)
	require.NoError(t, err)
	require.Len(t, p.Points, 2)
	assert.Equal(t, 3.0, p.Points[1].X)
	assert.Equal(t, 5.0, p.Points[1].Y)

	_, err = Project([]float64{0, 1, 2}, 1, 1)
	assert.Error(t, err)
	_, err = Project([]float64{0, 1}, 0, 1)
	assert.Error(t, err)

	art := ProjectionToASCII(p, 20, 10)
	lines := strings.Split(strings.TrimSuffix(art, "\n"), "\n")
	assert.Len(t, lines, 10)
	assert.Equal(t, 2, strings.Count(art, "•"))
	assert.Empty(t, ProjectionToASCII(nil, 20, 10))
}
