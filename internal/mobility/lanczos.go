package mobility

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ErrLanczos indicates the Krylov tridiagonal could not be diagonalized.
var ErrLanczos = errors.New("mobility: lanczos eigendecomposition failed")

// LanczosInfo describes how a LanczosSqrt call ended.
type LanczosInfo struct {
	Iterations int
	// Converged is false only when maxIter cut the basis short of both the
	// tolerance and the full Krylov space.
	Converged bool
}

// LanczosSqrt approximates M^{1/2} w, where apply computes mv = M v for a
// symmetric positive semi-definite M. Iteration stops when successive
// approximations differ by less than tol relative to their norm, when the
// Krylov space is exhausted, or after maxIter vectors (zero means len(w)).
func LanczosSqrt(apply func(v, mv []float64) error, w []float64, tol float64, maxIter int) ([]float64, LanczosInfo, error) {
	n := len(w)
	result := make([]float64, n)
	norm := floats.Norm(w, 2)
	if norm == 0 {
		return result, LanczosInfo{Converged: true}, nil
	}
	capped := maxIter > 0 && maxIter < n
	if maxIter <= 0 || maxIter > n {
		maxIter = n
	}

	v := make([]float64, n)
	floats.ScaleTo(v, 1/norm, w)

	basis := make([][]float64, 0, maxIter)
	alpha := make([]float64, 0, maxIter)
	beta := make([]float64, 0, maxIter)

	for k := 0; k < maxIter; k++ {
		basis = append(basis, v)

		z := make([]float64, n)
		if err := apply(v, z); err != nil {
			return nil, LanczosInfo{Iterations: k}, err
		}
		if k > 0 {
			floats.AddScaled(z, -beta[k-1], basis[k-1])
		}
		a := floats.Dot(v, z)
		floats.AddScaled(z, -a, v)
		// Full reorthogonalization keeps the basis orthonormal in floating point.
		for _, q := range basis {
			floats.AddScaled(z, -floats.Dot(q, z), q)
		}
		alpha = append(alpha, a)
		b := floats.Norm(z, 2)

		y, err := sqrtTridiagonalFirstColumn(alpha, beta)
		if err != nil {
			return nil, LanczosInfo{Iterations: k + 1}, err
		}
		next := make([]float64, n)
		for j, q := range basis {
			floats.AddScaled(next, norm*y[j], q)
		}

		converged := false
		if k > 0 {
			nextNorm := floats.Norm(next, 2)
			converged = floats.Distance(next, result, 2) <= tol*nextNorm
		}
		result = next
		if converged || b <= 1e-12*math.Abs(a) {
			return result, LanczosInfo{Iterations: k + 1, Converged: true}, nil
		}

		beta = append(beta, b)
		v = make([]float64, n)
		floats.ScaleTo(v, 1/b, z)
	}
	// n vectors span the whole space, so the result is exact.
	return result, LanczosInfo{Iterations: maxIter, Converged: !capped}, nil
}

// sqrtTridiagonalFirstColumn returns T^{1/2} e1 for the symmetric
// tridiagonal T with diagonal alpha and off-diagonal beta.
func sqrtTridiagonalFirstColumn(alpha, beta []float64) ([]float64, error) {
	m := len(alpha)
	t := mat.NewSymDense(m, nil)
	for i := 0; i < m; i++ {
		t.SetSym(i, i, alpha[i])
		if i+1 < m {
			t.SetSym(i, i+1, beta[i])
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(t, true); !ok {
		return nil, ErrLanczos
	}
	values := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	y := make([]float64, m)
	for j := 0; j < m; j++ {
		// Round-off can push eigenvalues of a semi-definite M below zero.
		c := math.Sqrt(math.Max(values[j], 0)) * vectors.At(0, j)
		for i := 0; i < m; i++ {
			y[i] += vectors.At(i, j) * c
		}
	}
	return y, nil
}
