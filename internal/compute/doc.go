// Package compute provides the engines behind the mobility solvers.
//
//   - CUDA: bindings to the batched RPY kernel and the doubly periodic grid
//     solver, compiled with -tags cuda
//   - CPU: a reference RPY pairwise kernel for hosts without a GPU
//
// # Pairwise engine
//
//	backend := compute.AutoSelectBackend()
//	s, err := nbody.New(cfg, nbody.WithEngine(backend))
//
// # Grid engine
//
//	s, err := dpstokes.New(cfg, dpstokes.WithEngine(compute.GridEngineFactory()))
//
// Without -tags cuda the grid factory reports ErrUnavailable and the
// doubly periodic solver cannot be initialized.
package compute
