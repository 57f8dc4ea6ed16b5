package analysis

import (
	"math"

	"github.com/san-kum/lorenz3d/internal/dynamo"
	"github.com/san-kum/lorenz3d/internal/integrators"
	"github.com/san-kum/lorenz3d/internal/physics"
)

// LyapunovExponent estimates the largest Lyapunov exponent using the
// trajectory separation method. A positive value indicates chaos.
//
// Algorithm:
// 1. Run two nearby trajectories
// 2. After every step, accumulate ln(|δx(t)|/|δx(0)|) and pull the
// perturbed trajectory back to the initial separation along δx
// 3. λ ≈ sum / (steps * dt)
//
// NaN is returned if either trajectory stops being finite.
func LyapunovExponent(
	dyn dynamo.System,
	integ dynamo.Integrator,
	x0 dynamo.State,
	dt, duration float64,
	perturbation float64,
) float64 {
	if len(x0) == 0 || dt <= 0 || perturbation <= 0 {
		return 0
	}

	x := x0.Clone()
	xp := x0.Clone()
	xp[0] += perturbation
	d0 := perturbation

	sumLog := 0.0
	count := 0
	for t := 0.0; t < duration; t += dt {
		x = integ.Step(dyn, x, dt)
		xp = integ.Step(dyn, xp, dt)
		if !x.IsValid() || !xp.IsValid() {
			return math.NaN()
		}

		sep := xp.Sub(x).Norm()
		if sep == 0 {
			// collapsed onto the reference trajectory; restart the offset
			xp = x.Clone()
			xp[0] += d0
			continue
		}
		sumLog += math.Log(sep / d0)
		count++

		scale := d0 / sep
		for i := range xp {
			xp[i] = x[i] + (xp[i]-x[i])*scale
		}
	}

	if count == 0 {
		return 0
	}
	return sumLog / (float64(count) * dt)
}

// Lyapunov is LyapunovExponent for the Lorenz system under explicit Euler,
// the integrator the live trail uses.
func Lyapunov(params physics.Params, x0 physics.Point3D, duration, perturbation float64) float64 {
	return LyapunovExponent(physics.NewLorenzFromParams(params), integrators.NewEuler(), x0.State(), params.Dt, duration, perturbation)
}
