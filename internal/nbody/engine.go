package nbody

import (
	"fmt"
	"strings"
)

// Algorithm selects how the pairwise engine schedules its work.
type Algorithm int

const (
	// Advise lets the engine pick based on the particle count.
	Advise Algorithm = iota
	Fast
	Naive
	Block
)

var algorithmNames = []string{"advise", "fast", "naive", "block"}

func (a Algorithm) String() string {
	if int(a) >= 0 && int(a) < len(algorithmNames) {
		return algorithmNames[a]
	}
	return fmt.Sprintf("algorithm(%d)", int(a))
}

func ParseAlgorithm(s string) (Algorithm, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return Advise, nil
	}
	for i, name := range algorithmNames {
		if name == key {
			return Algorithm(i), nil
		}
	}
	return Advise, fmt.Errorf("nbody: unknown algorithm %q", s)
}

func (a Algorithm) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *Algorithm) UnmarshalText(text []byte) error {
	v, err := ParseAlgorithm(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Engine is the external batched pairwise mobility kernel.
//
// Compute writes M F into result for batches independent systems of
// numberParticles particles each, stored back to back in positions and forces.
type Engine interface {
	Name() string
	Available() bool
	Compute(positions, forces, result []float64, batches, numberParticles int,
		selfMobility, hydrodynamicRadius float64, algo Algorithm) error
}
