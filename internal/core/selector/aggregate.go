package selector

import (
	"errors"
	"fmt"
	"math"

	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/dataset"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/spec"
)

// ErrNoValues is returned when an aggregation that needs at least one value
// gets none, such as the average of an empty group.
var ErrNoValues = errors.New("no values to aggregate")

// Aggregate reduces a run of cells in row order. count counts non-null
// cells of any kind, latest takes the last non-null cell, the rest read
// numeric cells only and ignore everything else.
func Aggregate(agg spec.Aggregation, cells []dataset.Value) (float64, error) {
	switch agg {
	case spec.AggCount:
		n := 0
		for _, c := range cells {
			if !c.IsNull() {
				n++
			}
		}
		return float64(n), nil
	case spec.AggLatest:
		for i := len(cells) - 1; i >= 0; i-- {
			if cells[i].IsNumeric() {
				return cells[i].Num, nil
			}
		}
		return 0, fmt.Errorf("latest: %w", ErrNoValues)
	}

	var (
		sum      float64
		n        int
		min, max = math.Inf(1), math.Inf(-1)
	)
	for _, c := range cells {
		if !c.IsNumeric() {
			continue
		}
		sum += c.Num
		n++
		min = math.Min(min, c.Num)
		max = math.Max(max, c.Num)
	}

	switch agg {
	case spec.AggSum:
		return sum, nil
	case spec.AggAvg, spec.AggMin, spec.AggMax:
		if n == 0 {
			return 0, fmt.Errorf("%s: %w", agg, ErrNoValues)
		}
	default:
		return 0, fmt.Errorf("unknown aggregation %q", agg)
	}

	switch agg {
	case spec.AggAvg:
		return sum / float64(n), nil
	case spec.AggMin:
		return min, nil
	}
	return max, nil
}

// additive aggregations have a natural value for an empty group
func additive(agg spec.Aggregation) bool {
	return agg == spec.AggSum || agg == spec.AggCount
}
