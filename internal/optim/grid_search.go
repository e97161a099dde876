// Package optim searches electrode voltage space for a configuration
// that hits a target mode frequency.
package optim

import (
	"context"
	"math"

	"github.com/iontools/trapmode/internal/field"
	"github.com/iontools/trapmode/internal/modes"
)

// Objective scores one voltage configuration; lower is better. Solves
// that fail return an error and are skipped.
type Objective func(v field.Voltages) (float64, error)

// GridSearch exhaustively scans per-electrode voltage ranges.
type GridSearch struct {
	electrodes []string
	ranges     [][]float64
}

// NewGridSearch builds a search over the given electrodes, each with
// its own list of candidate voltages.
func NewGridSearch(electrodes []string, ranges [][]float64) *GridSearch {
	return &GridSearch{electrodes: electrodes, ranges: ranges}
}

// Search evaluates the objective on every grid point and returns the
// best voltage set and its score. Base voltages for electrodes outside
// the search are carried through unchanged.
func (g *GridSearch) Search(ctx context.Context, base field.Voltages, obj Objective) (field.Voltages, float64, error) {
	best := math.Inf(1)
	var bestVolts field.Voltages

	err := g.searchRecursive(ctx, 0, cloneVoltages(base), obj, &best, &bestVolts)
	if err != nil {
		return nil, 0, err
	}
	return bestVolts, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current field.Voltages,
	obj Objective,
	best *float64,
	bestVolts *field.Voltages,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.electrodes) {
		val, err := obj(current)
		if err != nil {
			return nil // unsolvable grid point, keep scanning
		}
		if val < *best {
			*best = val
			*bestVolts = cloneVoltages(current)
		}
		return nil
	}

	label := g.electrodes[depth]
	for _, v := range g.ranges[depth] {
		current[label] = v
		if err := g.searchRecursive(ctx, depth+1, current, obj, best, bestVolts); err != nil {
			return err
		}
	}
	return nil
}

// FrequencyTarget builds an objective that minimizes the distance of
// one mode's frequency (in Hz) from a target.
func FrequencyTarget(solve func(field.Voltages) (*modes.Result, error), modeIndex int, targetHz float64) Objective {
	return func(v field.Voltages) (float64, error) {
		res, err := solve(v)
		if err != nil {
			return 0, err
		}
		if modeIndex < 0 || modeIndex >= res.N() {
			return math.Inf(1), nil
		}
		return math.Abs(res.FrequenciesHz()[modeIndex] - targetHz), nil
	}
}

func cloneVoltages(v field.Voltages) field.Voltages {
	out := make(field.Voltages, len(v))
	for label, val := range v {
		out[label] = val
	}
	return out
}
