package metabolic

import (
	"errors"
	"fmt"
	"math"
)

// fixTol relaxes each optimum slightly before it is imposed as a
// constraint, so later stages stay feasible under solver round-off.
const fixTol = 1e-9

type Solution struct {
	Status    Status
	Objective float64
	Fluxes    map[string]float64
}

func (m *Model) fluxes(y []float64) map[string]float64 {
	out := make(map[string]float64, len(m.Reactions))
	for j, r := range m.Reactions {
		out[r.ID] = y[j]
	}
	return out
}

func statusOf(err error) Status {
	switch {
	case errors.Is(err, ErrInfeasible):
		return StatusInfeasible
	case errors.Is(err, ErrUnbounded):
		return StatusUnbounded
	default:
		return StatusFailed
	}
}

// Optimize maximizes the model objective, the weighted sum of reaction
// fluxes given by ObjectiveCoefficient. On failure the returned solution
// carries the status alongside the error.
func (m *Model) Optimize() (*Solution, error) {
	obj := make(map[int]float64)
	for j, r := range m.Reactions {
		if r.ObjectiveCoefficient != 0 {
			obj[j] = r.ObjectiveCoefficient
		}
	}

	sol, err := newProgram(m, false).solve(obj, Maximize)
	if err != nil {
		return &Solution{Status: statusOf(err)}, fmt.Errorf("optimize %s: %w", m.ID, err)
	}
	return &Solution{Status: StatusOptimal, Objective: sol.objective, Fluxes: m.fluxes(sol.y)}, nil
}

// Feasibility returns the smallest total slack on the mass-balance rows
// that makes the current bounds satisfiable. It is zero, up to solver
// tolerance, exactly when the model is feasible.
func (m *Model) Feasibility() (float64, error) {
	p := newProgram(m, true)
	sol, err := p.solve(p.slackObjective(), Minimize)
	if err != nil {
		return 0, fmt.Errorf("feasibility %s: %w", m.ID, err)
	}
	return math.Max(sol.objective, 0), nil
}

type LexResult struct {
	// Values holds the optimum of each objective, in order.
	Values []float64
	// Infeasibility is the total mass-balance slack that was fixed before
	// the objectives were optimized. Zero when the model is feasible.
	Infeasibility float64
	Fluxes        map[string]float64
	Solves        int
}

// Lexicographic optimizes the objectives in priority order, fixing each
// optimum as a constraint before solving the next. The mass-balance
// constraints are relaxed by the smallest feasible total slack first, so a
// result is produced even when the bounds are infeasible.
func (m *Model) Lexicographic(objs []Objective) (*LexResult, error) {
	if len(objs) == 0 {
		return nil, fmt.Errorf("lexicographic %s: no objectives", m.ID)
	}

	p := newProgram(m, true)
	slackObj := p.slackObjective()
	res := &LexResult{Values: make([]float64, 0, len(objs))}

	feas, err := p.solve(slackObj, Minimize)
	res.Solves++
	if err != nil {
		return res, fmt.Errorf("lexicographic %s: feasibility: %w", m.ID, err)
	}
	res.Infeasibility = math.Max(feas.objective, 0)
	p.addConstraint(slackObj, res.Infeasibility+fixTol*math.Max(1, res.Infeasibility), true)

	var last *solution
	for _, o := range objs {
		j, err := p.reactionVar(o.Reaction)
		if err != nil {
			return res, fmt.Errorf("lexicographic %s: %w", m.ID, err)
		}
		coef := map[int]float64{j: 1}

		sol, err := p.solve(coef, o.Sense)
		res.Solves++
		if err != nil {
			return res, fmt.Errorf("lexicographic %s: %s %s: %w", m.ID, o.Sense, o.Reaction, err)
		}
		res.Values = append(res.Values, sol.objective)

		tol := fixTol * math.Max(1, math.Abs(sol.objective))
		if o.Sense == Maximize {
			p.addConstraint(coef, sol.objective-tol, false)
		} else {
			p.addConstraint(coef, sol.objective+tol, true)
		}
		last = sol
	}

	res.Fluxes = m.fluxes(last.y)
	return res, nil
}
