package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/fibersag/internal/dynamo"
	"github.com/san-kum/fibersag/internal/experiment"
)

// Objective scores a finished run; lower is better.
type Objective func(*dynamo.Result) float64

// SettlingTime scores converged runs by simulated time and everything else
// as +Inf.
func SettlingTime(r *dynamo.Result) float64 {
	if !r.Converged {
		return math.Inf(1)
	}
	return r.Time
}

// Metric scores a run by one of its recorded metrics.
func Metric(name string) Objective {
	return func(r *dynamo.Result) float64 {
		v, ok := r.Metrics[name]
		if !ok {
			return math.Inf(1)
		}
		return v
	}
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

// NewGridSearch evaluates every combination of the given values.
func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Search returns the best parameter set and its score. Points that fail to
// build or diverge are skipped; if every point fails the last error is
// returned.
func (g *GridSearch) Search(
	ctx context.Context,
	buildExperiment func(params map[string]float64) (*experiment.Experiment, error),
	objective Objective,
) (map[string]float64, float64, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, fmt.Errorf("%d parameters but %d ranges", len(g.paramNames), len(g.ranges))
	}

	best := math.Inf(1)
	var bestParams map[string]float64
	var lastErr error

	err := g.searchRecursive(ctx, 0, make(map[string]float64), buildExperiment, objective, &best, &bestParams, &lastErr)
	if err != nil {
		return nil, 0, err
	}
	if bestParams == nil {
		if lastErr == nil {
			lastErr = errors.New("no grid point produced a finite score")
		}
		return nil, best, lastErr
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	buildExperiment func(map[string]float64) (*experiment.Experiment, error),
	objective Objective,
	best *float64,
	bestParams *map[string]float64,
	lastErr *error,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		exp, err := buildExperiment(current)
		if err != nil {
			*lastErr = err
			return nil
		}

		result, err := exp.Run(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			*lastErr = err
			return nil
		}

		val := objective(result)
		if val < *best {
			*best = val
			*bestParams = make(map[string]float64)
			for k, v := range current {
				(*bestParams)[k] = v
			}
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, buildExperiment, objective, best, bestParams, lastErr); err != nil {
			return err
		}
	}
	return nil
}

// Linspace returns n evenly spaced values from lo to hi.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + (hi-lo)*float64(i)/float64(n-1)
	}
	return out
}

// FormatParams renders a parameter set in key order.
func FormatParams(p map[string]float64) string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	s := ""
	for i, k := range keys {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%s=%.4g", k, p[k])
	}
	return s
}
