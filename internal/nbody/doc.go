// Package nbody implements the open boundary pairwise mobility solver.
//
// Particles interact through the Rotne-Prager-Yamakawa tensor, evaluated by an
// external batched pairwise Engine. Only forces are supported; torques fail
// with mobility.ErrCapability. Thermal displacements use the default Lanczos
// approximation.
package nbody
