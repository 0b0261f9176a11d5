package metabolic

import "errors"

var (
	// ErrInfeasible indicates no flux distribution satisfies the constraints.
	ErrInfeasible = errors.New("metabolic: infeasible")

	// ErrUnbounded indicates the objective can grow without limit.
	ErrUnbounded = errors.New("metabolic: unbounded")

	// ErrSolver indicates a numerical failure inside the LP solver.
	ErrSolver = errors.New("metabolic: solver failure")

	// ErrUnknownReaction indicates a reaction id not present in the model.
	ErrUnknownReaction = errors.New("metabolic: unknown reaction")

	// ErrInvalidBounds indicates a lower bound above the upper bound.
	ErrInvalidBounds = errors.New("metabolic: lower bound exceeds upper bound")

	// ErrInvalidModel indicates a structurally broken model file.
	ErrInvalidModel = errors.New("metabolic: invalid model")
)
