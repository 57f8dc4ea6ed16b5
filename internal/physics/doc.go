// Package physics provides the Lorenz system.
//
// [Step] is the forward Euler update used by the live trail; it is a pure
// function and bit-for-bit reproducible. [Lorenz] wraps the same equations
// as a [dynamo.System] so the generic integrators and analysis routines can
// run it:
//
//	dyn := physics.NewLorenzFromParams(params)
//	integ := integrators.NewRK4()
//	x = integ.Step(dyn, x, params.Dt)
package physics
