package metrics

import "github.com/san-kum/dfba/internal/dynamo"

// NonNegative is the fraction of observations whose concentrations all
// stay above -tolerance. Values below one mean the integrator overshot
// into unphysical states.
type NonNegative struct {
	name       string
	tolerance  float64
	violations int
	samples    int
}

func NewNonNegative(tolerance float64) *NonNegative {
	return &NonNegative{
		name:      "nonnegative",
		tolerance: tolerance,
	}
}

func (s *NonNegative) Name() string {
	return s.name
}

func (s *NonNegative) Observe(x dynamo.State, t float64) {
	s.samples++
	for _, val := range x {
		if val < -s.tolerance {
			s.violations++
			break
		}
	}
}

func (s *NonNegative) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *NonNegative) Reset() {
	s.violations = 0
	s.samples = 0
}
