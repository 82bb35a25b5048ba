// Package mobility provides the capability contract shared by every
// hydrodynamic mobility solver.
//
// A solver maps forces and torques acting on particles to the resulting
// linear and angular velocities (the mobility product, [Solver.Mdot]) and
// produces thermal displacements consistent with fluctuation-dissipation
// ([Solver.SqrtMdotW]). Concrete solvers differ in the boundary conditions,
// devices and optional behavior they support; those differences are declared
// up front in [Support] and [Capabilities] rather than discovered at call time.
//
// # Call sequence
//
//	s, err := selfmobility.New(mobility.Configuration{...}) // validated here
//	err = s.Initialize(mobility.Parameters{...})
//	err = s.SetPositions(pos)
//	err = s.Mdot(forces, nil, linear, nil)
//	err = s.SqrtMdotW(noise, math.Sqrt(dt))
//	err = s.Clean()
//
// The order is enforced by [Lifecycle]. Violations fail with [ErrState],
// unsupported requests with [ErrCapability].
//
// # Thread Safety
//
// Solvers are NOT safe for concurrent use. Each instance owns one engine
// handle and one random source; callers must serialize access.
package mobility
