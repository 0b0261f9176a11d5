package dfba

import "math"

// Uptake is a saturating Michaelis-Menten uptake rate.
type Uptake struct {
	Vmax float64 // mmol/gDW/h
	Km   float64 // mmol/L
}

// Rate returns the uptake rate at concentration c. Negative concentrations,
// which the integrator can overshoot into near exhaustion, count as zero.
func (u Uptake) Rate(c float64) float64 {
	c = math.Max(c, 0)
	if c == 0 {
		return 0
	}
	return u.Vmax * c / (u.Km + c)
}

// Bound is the exchange lower bound for concentration c. Exchange fluxes
// are negative for uptake.
func (u Uptake) Bound(c float64) float64 {
	if r := u.Rate(c); r != 0 {
		return -r
	}
	return 0
}
