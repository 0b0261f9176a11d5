// Package dfba couples a metabolic model to the ODE driver using the static
// optimization approach to dynamic flux balance analysis.
//
// The state is [biomass (gDW/L), substrate (mmol/L)]. At every
// right-hand-side evaluation the substrate concentration sets the uptake
// bound of the exchange reaction, a lexicographic linear program picks the
// fluxes (growth first, then the least substrate uptake that sustains it),
// and the fluxes are scaled by biomass:
//
//	dX/dt = mu * X
//	dS/dt = v_S * X
//
// When the substrate can no longer cover the maintenance demand the model
// becomes infeasible. [InfeasibilityEvent] reports the distance from
// feasibility so the simulator stops at that point.
package dfba
