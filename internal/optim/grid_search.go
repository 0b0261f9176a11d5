package optim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/dfba/internal/dynamo"
)

// RunFunc simulates one parameter combination.
type RunFunc func(ctx context.Context, params map[string]float64) (*dynamo.Result, error)

// Point is one evaluated combination.
type Point struct {
	Params map[string]float64
	Value  float64
	Err    error
}

// GridSearch evaluates a metric over the cartesian product of parameter
// values.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	maximize   bool
}

func NewGridSearch(params []string, ranges [][]float64, maximize bool) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("grid search: %d parameters but %d ranges", len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("grid search: no values for %s", params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges, maximize: maximize}, nil
}

func (g *GridSearch) better(a, b float64) bool {
	if g.maximize {
		return a > b
	}
	return a < b
}

// Search returns the best point and every evaluated point in grid order.
// Combinations whose run fails are recorded with their error and skipped
// when picking the best.
func (g *GridSearch) Search(ctx context.Context, run RunFunc, metricName string) (*Point, []Point, error) {
	points := make([]Point, 0)
	if err := g.searchRecursive(ctx, 0, make(map[string]float64), run, metricName, &points); err != nil {
		return nil, points, err
	}

	var best *Point
	for i := range points {
		p := &points[i]
		if p.Err != nil || math.IsNaN(p.Value) {
			continue
		}
		if best == nil || g.better(p.Value, best.Value) {
			best = p
		}
	}
	if best == nil {
		return nil, points, fmt.Errorf("grid search: no successful run for %s", metricName)
	}
	return best, points, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	run RunFunc,
	metricName string,
	points *[]Point,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		params := make(map[string]float64, len(current))
		for k, v := range current {
			params[k] = v
		}

		p := Point{Params: params, Value: math.NaN()}
		result, err := run(ctx, params)
		switch {
		case err != nil:
			p.Err = err
		default:
			val, ok := result.Metrics[metricName]
			if !ok {
				return fmt.Errorf("grid search: unknown metric %s", metricName)
			}
			p.Value = val
		}
		*points = append(*points, p)
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		current[paramName] = val
		if err := g.searchRecursive(ctx, depth+1, current, run, metricName, points); err != nil {
			return err
		}
	}
	delete(current, paramName)
	return nil
}
