// Package analysis characterises Lorenz trajectories.
//
//   - [LyapunovExponent]: largest Lyapunov exponent via trajectory separation
//   - [PowerSpectrum], [DominantFrequency]: spectral content of one coordinate
//   - [Sweep]: parallel rho sweep with exponents and z maxima
//   - [PhasePortraitToASCII], [BifurcationToASCII]: terminal plots
//
// # Chaos Detection
//
// A positive largest Lyapunov exponent indicates chaotic dynamics:
//
//	lambda := analysis.Lyapunov(params, physics.InitialPoint, 100, 1e-8)
//	if lambda > 0 {
//	    // System is chaotic
//	}
package analysis
