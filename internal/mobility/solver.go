package mobility

import "math/rand/v2"

// Solver is the uniform interface every mobility solver implements.
//
// Slices are flat: particle i occupies elements 3i, 3i+1, 3i+2.
// A nil torques or angular slice means the caller does not use them.
type Solver interface {
	Name() string
	Configuration() Configuration
	Capabilities() Capabilities
	Phase() Phase

	Initialize(par Parameters) error
	SetPositions(positions []float64) error
	NumberParticles() int
	Mdot(forces, torques, linear, angular []float64) error
	SqrtMdotW(out []float64, prefactor float64) error
	Clean() error
}

// Capabilities are the optional behaviors of a solver.
type Capabilities struct {
	// Torque reports whether the solver can couple torques and angular
	// velocities. It is only active once initialized with NeedsTorque.
	Torque bool
	// CustomNoise reports a closed-form SqrtMdotW. Without it the
	// Lanczos approximation is used.
	CustomNoise bool
	// RequiresConfigure reports that a variant-specific setter must run
	// before Initialize.
	RequiresConfigure bool
}

// Kernel is the variant-specific part of a solver. The lifecycle guards all
// calls, so a kernel only sees well-ordered, well-shaped requests.
type Kernel interface {
	// Setup derives variant state from par and allocates the engine.
	Setup(par Parameters) error
	SetPositions(positions []float64) error
	// NumberParticles is the count the engine currently holds.
	NumberParticles() int
	Mdot(forces, torques, linear, angular []float64) error
	// Release frees the engine. It must be safe to call more than once.
	Release() error
}

// NoiseFunc is a closed-form SqrtMdotW. rng is owned by the solver instance.
type NoiseFunc func(rng *rand.Rand, out []float64, prefactor float64) error

// Variant describes a concrete solver to NewLifecycle.
type Variant struct {
	Name    string
	Support Support
	Kernel  Kernel
	// Torque enables torque coupling for Parameters.NeedsTorque.
	Torque bool
	// Noise overrides the default Lanczos SqrtMdotW when non-nil.
	Noise NoiseFunc
	// RequiresConfigure forbids Initialize until Configure has succeeded.
	RequiresConfigure bool
}

func (v Variant) capabilities() Capabilities {
	return Capabilities{
		Torque:            v.Torque,
		CustomNoise:       v.Noise != nil,
		RequiresConfigure: v.RequiresConfigure,
	}
}
