// Package dynamo provides core simulation primitives for dynamical systems.
//
// The package defines the fundamental interfaces and types for numerical
// integration of ordinary differential equations (ODEs):
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(X, t))
//   - [Integrator]: numerical integrator interface
//   - [Event]: scalar function whose zero crossing is located during a run
//   - [Simulator]: orchestrates simulation runs
//
// # Example
//
//	sys, _ := dfba.New(metabolic.Textbook(), dfba.DefaultParams())
//	sim := dynamo.New(sys, integrators.NewRK45())
//	sim.AddEvent(dfba.InfeasibilityEvent(sys))
//	result, _ := sim.Run(ctx, dynamo.State{0.1, 10}, cfg)
//
// # Thread Safety
//
// Simulator instances are NOT thread-safe. For parallel simulations,
// use the [Ensemble] type which builds a fresh system per run.
package dynamo
