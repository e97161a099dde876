// Package trap provides the core types shared by the axial mode solver.
//
// The package defines the fundamental vocabulary of the pipeline:
//
//   - [Ion], [Chain]: the charged particles held in the trap
//   - [Potential]: scalar axial potential with analytic derivatives
//   - physical constants (elementary charge, vacuum permittivity, ...)
//   - the error taxonomy every solver stage reports from
//
// Two implementations of [Potential] exist: a spline model built from
// per-electrode unit-voltage field samples (package potential) and a
// closed-form harmonic well. Callers pick one explicitly; solvers only
// see the interface.
//
// # Thread Safety
//
// All types in this package are immutable after construction. A full
// solve (potential model, equilibrium, normal modes) is a pure function
// of its inputs and may run concurrently with other solves.
package trap
