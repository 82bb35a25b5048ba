// Package analysis reduces Brownian-dynamics trajectories to transport
// observables.
//
//   - [MeanSquareDisplacement]: ensemble MSD relative to the start positions
//   - [FitDiffusion]: diffusion coefficient from the slope of MSD(t)
//   - [PowerSpectrum]: periodogram of a displacement signal
//   - [SpectralFlatness]: whiteness of a periodogram
//   - [Project]: 2D projection of a particle configuration
//
// For free diffusion in three dimensions MSD(t) = 6 D t, so
//
//	fit, err := analysis.FitDiffusion(times, msd, 3)
//	// fit.D estimates kT / (6 pi eta a)
package analysis
