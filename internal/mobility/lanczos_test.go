package mobility

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func diagonalOperator(d []float64) func(v, mv []float64) error {
	return func(v, mv []float64) error {
		for i := range v {
			mv[i] = d[i] * v[i]
		}
		return nil
	}
}

func TestLanczosSqrtDiagonal(t *testing.T) {
	d := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9}
	w := []float64{0.3, -1.2, 0.7, 2.1, -0.4, 1.1, -0.9, 0.5, 1.6}

	got, info, err := LanczosSqrt(diagonalOperator(d), w, 1e-12, 0)
	require.NoError(t, err)
	assert.LessOrEqual(t, info.Iterations, len(w))
	assert.True(t, info.Converged)
	for i := range w {
		assert.InDelta(t, math.Sqrt(d[i])*w[i], got[i], 1e-8, "component %d", i)
	}
}

func TestLanczosSqrtScaledIdentity(t *testing.T) {
	d := []float64{4, 4, 4, 4, 4, 4}
	w := []float64{1, -2, 3, -4, 5, -6}

	got, info, err := LanczosSqrt(diagonalOperator(d), w, 1e-10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, info.Iterations, "one Krylov vector spans an eigenvector")
	for i := range w {
		assert.InDelta(t, 2*w[i], got[i], 1e-12)
	}
}

func TestLanczosSqrtZeroVector(t *testing.T) {
	got, info, err := LanczosSqrt(diagonalOperator([]float64{1, 1, 1}), make([]float64, 3), 1e-6, 0)
	require.NoError(t, err)
	assert.Zero(t, info.Iterations)
	assert.Equal(t, []float64{0, 0, 0}, got)
}

func TestLanczosSqrtOperatorError(t *testing.T) {
	boom := errors.New("engine failure")
	_, _, err := LanczosSqrt(func(v, mv []float64) error { return boom }, []float64{1, 2, 3}, 1e-6, 0)
	assert.ErrorIs(t, err, boom)
}

func TestLanczosSqrtIterationCap(t *testing.T) {
	d := []float64{1, 2, 3, 4, 5, 6}
	w := []float64{1, 1, 1, 1, 1, 1}
	_, info, err := LanczosSqrt(diagonalOperator(d), w, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, info.Iterations)
	assert.False(t, info.Converged, "three vectors cannot resolve six eigenvalues")

	_, info, err = LanczosSqrt(diagonalOperator(d), w, 0, 6)
	require.NoError(t, err)
	assert.True(t, info.Converged, "a full basis is exact")
}
