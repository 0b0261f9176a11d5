package dfba

import (
	"fmt"

	"github.com/san-kum/dfba/internal/dynamo"
	"github.com/san-kum/dfba/internal/metabolic"
	"github.com/sirupsen/logrus"
)

const (
	DefaultVmax    = 10.0
	DefaultKm      = 5.0
	DefaultEpsilon = 1e-6
)

type Params struct {
	Biomass   string
	Substrate string
	Uptake    Uptake
	// Epsilon is the total mass-balance slack above which the model counts
	// as infeasible.
	Epsilon float64
}

func DefaultParams() Params {
	return Params{
		Biomass:   metabolic.TextbookBiomass,
		Substrate: metabolic.TextbookGlucose,
		Uptake:    Uptake{Vmax: DefaultVmax, Km: DefaultKm},
		Epsilon:   DefaultEpsilon,
	}
}

func (p Params) validate() error {
	if p.Uptake.Vmax < 0 {
		return fmt.Errorf("dfba: vmax must be non-negative, got %g", p.Uptake.Vmax)
	}
	if p.Uptake.Km <= 0 {
		return fmt.Errorf("dfba: km must be positive, got %g", p.Uptake.Km)
	}
	if p.Epsilon <= 0 {
		return fmt.Errorf("dfba: epsilon must be positive, got %g", p.Epsilon)
	}
	return nil
}

// System is the dFBA right-hand side. It owns its model, which is mutated
// during every evaluation and restored afterwards.
type System struct {
	model    *metabolic.Model
	params   Params
	lpSolves int
}

func New(model *metabolic.Model, params Params) (*System, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	for _, id := range []string{params.Biomass, params.Substrate} {
		if !model.HasReaction(id) {
			return nil, fmt.Errorf("dfba: model %s: %w: %s", model.ID, metabolic.ErrUnknownReaction, id)
		}
	}
	return &System{model: model, params: params}, nil
}

func (s *System) StateDim() int { return 2 }

func (s *System) Params() Params { return s.params }

// LPSolves is the number of linear programs solved so far.
func (s *System) LPSolves() int { return s.lpSolves }

func (s *System) objectives() []metabolic.Objective {
	return []metabolic.Objective{
		{Reaction: s.params.Biomass, Sense: metabolic.Maximize},
		{Reaction: s.params.Substrate, Sense: metabolic.Maximize},
	}
}

// bounds returns the substrate exchange bounds for concentration c.
func (s *System) bounds(c float64) (map[string]metabolic.Bounds, error) {
	r, err := s.model.Reaction(s.params.Substrate)
	if err != nil {
		return nil, err
	}
	lower := s.params.Uptake.Bound(c)
	if lower > r.UpperBound {
		lower = r.UpperBound
	}
	return map[string]metabolic.Bounds{
		s.params.Substrate: {Lower: lower, Upper: r.UpperBound},
	}, nil
}

// Rates solves the lexicographic program at substrate concentration c and
// returns the specific growth rate, the substrate exchange flux, and the
// mass-balance slack that had to be tolerated.
func (s *System) Rates(c float64) (mu, vSubstrate, slack float64, err error) {
	overrides, err := s.bounds(c)
	if err != nil {
		return 0, 0, 0, err
	}

	var res *metabolic.LexResult
	err = s.model.WithBounds(overrides, func() error {
		var lexErr error
		res, lexErr = s.model.Lexicographic(s.objectives())
		return lexErr
	})
	if res != nil {
		s.lpSolves += res.Solves
	}
	if err != nil {
		return 0, 0, 0, err
	}
	return res.Values[0], res.Values[1], res.Infeasibility, nil
}

func (s *System) Derive(x dynamo.State, t float64) (dynamo.State, error) {
	biomass, substrate := x[0], x[1]

	mu, v, slack, err := s.Rates(substrate)
	if err != nil {
		return nil, fmt.Errorf("t=%.6f: %w", t, err)
	}

	logrus.Debugf("t=%.6f X=%.6f S=%.6f mu=%.6f v=%.6f slack=%.3e", t, biomass, substrate, mu, v, slack)

	return dynamo.State{mu * biomass, v * biomass}, nil
}

// Infeasibility is the smallest total mass-balance slack needed at state x.
func (s *System) Infeasibility(x dynamo.State) (float64, error) {
	overrides, err := s.bounds(x[1])
	if err != nil {
		return 0, err
	}

	var feas float64
	err = s.model.WithBounds(overrides, func() error {
		var feasErr error
		feas, feasErr = s.model.Feasibility()
		return feasErr
	})
	s.lpSolves++
	return feas, err
}

// Fluxes returns the full flux distribution chosen at substrate
// concentration c.
func (s *System) Fluxes(c float64) (map[string]float64, error) {
	overrides, err := s.bounds(c)
	if err != nil {
		return nil, err
	}

	var res *metabolic.LexResult
	err = s.model.WithBounds(overrides, func() error {
		var lexErr error
		res, lexErr = s.model.Lexicographic(s.objectives())
		return lexErr
	})
	if res != nil {
		s.lpSolves += res.Solves
	}
	if err != nil {
		return nil, err
	}
	return res.Fluxes, nil
}

// InfeasibilityEvent stops integration where the slack first exceeds the
// system's epsilon, i.e. where the substrate is exhausted.
func InfeasibilityEvent(s *System) dynamo.Event {
	return dynamo.Event{
		Name: "infeasible",
		Func: func(x dynamo.State, t float64) (float64, error) {
			feas, err := s.Infeasibility(x)
			if err != nil {
				return 0, err
			}
			return feas - s.params.Epsilon, nil
		},
		Direction: 1,
		Terminal:  true,
	}
}
