// Package dpstokes implements the doubly periodic Stokes mobility solver.
//
// The box is periodic in X and Y and bounded or open in Z. Hydrodynamics are
// delegated to an external grid Engine; this package turns physical inputs
// into a consistent grid for that engine. [Resolve] is pure and can be used
// without an engine, e.g. to preview a grid:
//
//	d, err := dpstokes.Resolve(dpstokes.Input{
//		Radius:    1,
//		Viscosity: 1,
//		Geometry:  dpstokes.Geometry{Lx: 32, Ly: 32, Zmin: -8, Zmax: 8},
//		Mode:      dpstokes.Bottom,
//	})
//
// Reference: A. Hashemi et al., Computing hydrodynamic interactions in
// confined doubly periodic geometries in linear time, J. Chem. Phys. 158,
// 154101 (2023).
package dpstokes
