// Package metabolic holds constraint-based metabolic models and the linear
// programs solved over them.
//
// A [Model] is a stoichiometric network: reactions with flux bounds and an
// objective, over metabolites whose net production must vanish at steady
// state. Three solves are offered:
//
//   - [Model.Optimize]: flux balance analysis, maximize the objective
//   - [Model.Feasibility]: smallest total mass-balance violation needed to
//     satisfy the bounds; zero exactly when the model is feasible
//   - [Model.Lexicographic]: optimize several reaction fluxes in priority
//     order, fixing each optimum before the next
//
// Programs are translated to standard form and solved with the gonum
// simplex implementation.
//
// Models are not safe for concurrent use. [Model.WithBounds] mutates bounds
// for the duration of a callback; use [Model.Clone] to give each goroutine
// its own copy.
package metabolic
