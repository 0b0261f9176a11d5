// Package integrators implements explicit Runge-Kutta steppers for
// [dynamo.System] right-hand sides.
//
//   - [Euler]: first order, fixed step
//   - [RK4]: classic fourth order, fixed step
//   - [RK45]: Dormand-Prince 5(4) with embedded error estimate
//
// [RK45] implements [dynamo.AdaptiveIntegrator]; the simulator uses its
// error norm to accept or reject steps.
package integrators
