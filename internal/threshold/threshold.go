// Package threshold computes percentile cutoffs per variable, scores per-point
// exceedance counts under a configurable direction policy, and builds the
// candidate hotspot mask.
package threshold

import (
	"fmt"
	"math"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/urbanheat/uhi-cli/internal/model"
)

// MinValidValues is the smallest population a variable needs before its
// percentile cutoffs are considered meaningful. Variables below this are
// skipped from exceedance scoring rather than aborting the run.
const MinValidValues = 10

// ErrInsufficientData marks a variable with too few valid values for
// threshold computation.
var ErrInsufficientData = eris.New("threshold: insufficient data")

// Percentile returns the pct-th percentile of values using linear
// interpolation between order statistics (the q = (n-1)*p convention).
// The input is not modified. Non-finite values must be filtered by the caller.
func Percentile(values []float64, pct float64) (float64, error) {
	if len(values) == 0 {
		return 0, eris.New("threshold: percentile of empty set")
	}
	if pct < 0 || pct > 100 {
		return 0, eris.Errorf("threshold: percentile %v out of range", pct)
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	q := float64(len(sorted)-1) * pct / 100
	lo := int(math.Floor(q))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1], nil
	}
	frac := q - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo]), nil
}

// Compute derives hot/cool cutoffs for every exceedance variable from the full
// (not downsampled) value population. Variables with fewer than MinValidValues
// finite values are skipped and reported, never fatal. The result is
// deterministic regardless of input ordering.
func Compute(values map[model.Variable][]float64, pol Policy) (model.ThresholdSet, []model.SkippedVariable, error) {
	set := make(model.ThresholdSet)
	var skipped []model.SkippedVariable

	for _, v := range model.ExceedanceVariables() {
		valid := finite(values[v])
		if len(valid) < MinValidValues {
			skipped = append(skipped, model.SkippedVariable{
				Variable: v,
				Reason:   fmt.Sprintf("insufficient data: %d valid values (minimum %d)", len(valid), MinValidValues),
			})
			zap.L().Warn("threshold: skipping variable",
				zap.String("variable", string(v)),
				zap.Int("valid_values", len(valid)),
			)
			continue
		}

		hot, err := Percentile(valid, pol.HotPercentile)
		if err != nil {
			return nil, nil, eris.Wrapf(err, "threshold: hot cutoff for %s", v)
		}
		cool, err := Percentile(valid, pol.CoolPercentile)
		if err != nil {
			return nil, nil, eris.Wrapf(err, "threshold: cool cutoff for %s", v)
		}
		set[v] = model.Cutoffs{Hot: hot, Cool: cool}
	}

	sort.Slice(skipped, func(i, j int) bool { return skipped[i].Variable < skipped[j].Variable })
	return set, skipped, nil
}

func finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}
