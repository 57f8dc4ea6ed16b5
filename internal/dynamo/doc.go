// Package dynamo provides the primitives shared by the simulation packages.
//
//   - [State]: vector representing system state
//   - [System]: autonomous ODE (dX/dt = f(X))
//   - [Integrator]: numerical stepper
//   - [Configurable]: systems with named tunable parameters
//
// It also owns the sentinel errors and the package-wide [Logger].
package dynamo
