package metabolic

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

const (
	simplexTol = 1e-10
	rankTol    = 1e-9
)

type Status int

const (
	StatusOptimal Status = iota
	StatusInfeasible
	StatusUnbounded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	default:
		return "failed"
	}
}

// constraint is sum(coef[k] * y[k]) >= rhs, or <= rhs when upper is set,
// over program variables y.
type constraint struct {
	coef  map[int]float64
	rhs   float64
	upper bool
}

// program is a bounded LP over reaction fluxes, optionally extended with a
// pair of non-negative slack variables per metabolite row:
//
//	S v + s⁺ - s⁻ = 0,  lb <= v <= ub,  s⁺, s⁻ >= 0.
type program struct {
	model       *Model
	slack       bool
	constraints []constraint
}

func newProgram(m *Model, slack bool) *program {
	return &program{model: m, slack: slack}
}

func (p *program) numVars() int {
	n := len(p.model.Reactions)
	if p.slack {
		n += 2 * len(p.model.Metabolites)
	}
	return n
}

// slackObjective weights every slack variable by one.
func (p *program) slackObjective() map[int]float64 {
	coef := make(map[int]float64, 2*len(p.model.Metabolites))
	n := len(p.model.Reactions)
	for k := n; k < p.numVars(); k++ {
		coef[k] = 1
	}
	return coef
}

func (p *program) reactionVar(id string) (int, error) {
	j, ok := p.model.rxnIndex[id]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownReaction, id)
	}
	return j, nil
}

func (p *program) bounds(k int) (float64, float64) {
	if k < len(p.model.Reactions) {
		r := p.model.Reactions[k]
		return r.LowerBound, r.UpperBound
	}
	return 0, math.Inf(1)
}

func (p *program) addConstraint(coef map[int]float64, rhs float64, upper bool) {
	p.constraints = append(p.constraints, constraint{coef: coef, rhs: rhs, upper: upper})
}

// solution is the optimum of a program in its original variables.
type solution struct {
	objective float64
	y         []float64
}

// column is one non-negative simplex variable x contributing sign*x to a
// program variable.
type column struct {
	v    int
	sign float64
}

// layout maps program variables onto simplex columns. Bounds at or beyond
// ±DefaultBound are the COBRA encoding of an open bound and are not
// imposed: a variable open on both sides is split into x⁺ - x⁻, one open
// only below is mirrored as ub - x, and everything else is shifted to
// lb + x with an upper-bound row when its upper bound is closed.
type layout struct {
	cols   []column
	offset []float64
	// upper lists the variables that need an explicit upper-bound row.
	upper []int
}

func (p *program) layout(stoich [][]float64) *layout {
	nVar := p.numVars()
	nRxn := len(p.model.Reactions)
	l := &layout{
		cols:   make([]column, 0, nVar+nRxn),
		offset: make([]float64, nVar),
	}

	for k := 0; k < nVar; k++ {
		lo, hi := p.bounds(k)
		empty := k < nRxn && emptyColumn(stoich, k)
		openLo := lo <= -DefaultBound && !empty
		openHi := (hi >= DefaultBound && hi > lo) && !empty

		switch {
		case openLo && openHi:
			l.cols = append(l.cols, column{k, 1}, column{k, -1})
		case openLo:
			l.offset[k] = hi
			l.cols = append(l.cols, column{k, -1})
		default:
			l.offset[k] = lo
			l.cols = append(l.cols, column{k, 1})
			if !openHi && !math.IsInf(hi, 1) {
				l.upper = append(l.upper, k)
			}
		}
	}
	return l
}

func emptyColumn(stoich [][]float64, j int) bool {
	for _, row := range stoich {
		if row[j] != 0 {
			return false
		}
	}
	return true
}

// solve optimizes sum(obj[k] * y[k]) over the standard form
//
//	A x = b,  x >= 0
//
// built from the mass balances, the closed upper bounds, and the added
// constraints, each inequality with its own slack column.
func (p *program) solve(obj map[int]float64, sense Sense) (*solution, error) {
	nVar := p.numVars()
	nRxn := len(p.model.Reactions)
	nMet := len(p.model.Metabolites)
	stoich := p.model.Stoichiometry()
	l := p.layout(stoich)

	metRows := make([]int, 0, nMet)
	if p.slack {
		for i := 0; i < nMet; i++ {
			metRows = append(metRows, i)
		}
	} else {
		metRows = independentRows(stoich, rankTol)
	}

	nStruct := len(l.cols)
	nRows := len(metRows) + len(l.upper) + len(p.constraints)
	nCols := nStruct + len(l.upper) + len(p.constraints)
	a := mat.NewDense(nRows, nCols, nil)
	b := make([]float64, nRows)

	// coefficient of program variable k in metabolite row i
	coef := func(i, k int) float64 {
		if k < nRxn {
			return stoich[i][k]
		}
		switch k - nRxn {
		case i:
			return 1
		case nMet + i:
			return -1
		}
		return 0
	}

	row := 0
	for _, i := range metRows {
		rhs := 0.0
		for c, col := range l.cols {
			if v := coef(i, col.v); v != 0 {
				a.Set(row, c, col.sign*v)
			}
		}
		for k := 0; k < nVar; k++ {
			if l.offset[k] != 0 {
				rhs -= coef(i, k) * l.offset[k]
			}
		}
		b[row] = rhs
		row++
	}

	slackCol := nStruct
	for _, k := range l.upper {
		for c, col := range l.cols {
			if col.v == k {
				a.Set(row, c, 1)
			}
		}
		_, hi := p.bounds(k)
		a.Set(row, slackCol, 1)
		b[row] = hi - l.offset[k]
		row++
		slackCol++
	}

	for _, con := range p.constraints {
		rhs := con.rhs
		for c, col := range l.cols {
			if v, ok := con.coef[col.v]; ok {
				a.Set(row, c, col.sign*v)
			}
		}
		for k, v := range con.coef {
			rhs -= v * l.offset[k]
		}
		if con.upper {
			a.Set(row, slackCol, 1)
		} else {
			a.Set(row, slackCol, -1)
		}
		b[row] = rhs
		row++
		slackCol++
	}

	sign := -1.0
	if sense == Minimize {
		sign = 1.0
	}
	cost := make([]float64, nCols)
	for c, col := range l.cols {
		if v, ok := obj[col.v]; ok {
			cost[c] = sign * col.sign * v
		}
	}

	_, x, err := lp.Simplex(cost, a, b, simplexTol, p.slackBasis(l, b, len(metRows)))
	if err != nil {
		return nil, translateError(err)
	}

	y := make([]float64, nVar)
	copy(y, l.offset)
	for c, col := range l.cols {
		y[col.v] += col.sign * x[c]
	}
	value := 0.0
	for k, v := range obj {
		value += v * y[k]
	}

	return &solution{objective: value, y: y}, nil
}

// slackBasis returns a feasible starting basis for a relaxed program with
// no added constraints: each mass balance takes whichever of s⁺ or s⁻
// absorbs its right-hand side and each upper-bound row takes its own slack.
// That skips the simplex phase I for the feasibility problem.
func (p *program) slackBasis(l *layout, b []float64, nMetRows int) []int {
	if !p.slack || len(p.constraints) > 0 {
		return nil
	}
	nRxn := len(p.model.Reactions)
	nMet := len(p.model.Metabolites)

	colOf := make(map[int]int, 2*nMet)
	for c, col := range l.cols {
		if col.v >= nRxn {
			colOf[col.v] = c
		}
	}

	basis := make([]int, 0, len(b))
	for i := 0; i < nMetRows; i++ {
		if b[i] >= 0 {
			basis = append(basis, colOf[nRxn+i])
		} else {
			basis = append(basis, colOf[nRxn+nMet+i])
		}
	}
	for r := range l.upper {
		basis = append(basis, len(l.cols)+r)
	}
	return basis
}

func translateError(err error) error {
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		return fmt.Errorf("%w: %v", ErrInfeasible, err)
	case errors.Is(err, lp.ErrUnbounded):
		return fmt.Errorf("%w: %v", ErrUnbounded, err)
	default:
		return fmt.Errorf("%w: %v", ErrSolver, err)
	}
}

// independentRows returns the indices of a maximal linearly independent
// subset of rows, found by modified Gram-Schmidt. Zero rows are dropped.
func independentRows(rows [][]float64, tol float64) []int {
	basis := make([][]float64, 0, len(rows))
	keep := make([]int, 0, len(rows))
	for i, r := range rows {
		scale := floats.Norm(r, 2)
		if scale == 0 {
			continue
		}
		v := make([]float64, len(r))
		copy(v, r)
		for pass := 0; pass < 2; pass++ {
			for _, q := range basis {
				floats.AddScaled(v, -floats.Dot(v, q), q)
			}
		}
		norm := floats.Norm(v, 2)
		if norm <= tol*scale {
			continue
		}
		floats.Scale(1/norm, v)
		basis = append(basis, v)
		keep = append(keep, i)
	}
	return keep
}
