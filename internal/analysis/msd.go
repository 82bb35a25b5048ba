package analysis

import (
	"fmt"
)

// MeanSquareDisplacement returns the mean over particles of |r - r0|^2.
// Both slices are flat, three values per particle, and must be unwrapped.
func MeanSquareDisplacement(origin, current []float64) (float64, error) {
	if len(origin) != len(current) || len(origin) == 0 || len(origin)%3 != 0 {
		return 0, fmt.Errorf("analysis: msd needs equal flat slices, got %d and %d values", len(origin), len(current))
	}
	var sum float64
	for i, x0 := range origin {
		d := current[i] - x0
		sum += d * d
	}
	return sum / float64(len(origin)/3), nil
}

// MeanDisplacement returns the mean displacement vector, the drift of the
// ensemble under an external force.
func MeanDisplacement(origin, current []float64) ([3]float64, error) {
	var mean [3]float64
	if len(origin) != len(current) || len(origin) == 0 || len(origin)%3 != 0 {
		return mean, fmt.Errorf("analysis: drift needs equal flat slices, got %d and %d values", len(origin), len(current))
	}
	n := float64(len(origin) / 3)
	for i, x0 := range origin {
		mean[i%3] += (current[i] - x0) / n
	}
	return mean, nil
}
