package dpstokes

// Engine is the external doubly periodic grid solver. It owns device memory
// between Initialize and Clear.
type Engine interface {
	Initialize(d Discretization, numberParticles int) error
	SetPositions(positions []float64) error
	// NumberParticles is the count given to Initialize.
	NumberParticles() int
	// Mdot accepts nil torques and angular when torques are not coupled.
	Mdot(forces, torques, linear, angular []float64) error
	Clear() error
}

// EngineFactory creates a fresh engine for every Initialize.
type EngineFactory func() (Engine, error)
