package threshold

import (
	"math"

	"github.com/urbanheat/uhi-cli/internal/model"
)

// Exceeds reports whether a single value is hot-contributing for its variable
// under the policy's direction table and the computed cutoffs. Variables
// absent from the threshold set (skipped for insufficient data) never exceed.
func Exceeds(v model.Variable, value float64, set model.ThresholdSet, pol Policy) bool {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return false
	}
	cut, ok := set[v]
	if !ok {
		return false
	}
	switch pol.Directions[v] {
	case DirectionHigh:
		return value > cut.Hot
	case DirectionLow:
		return value < cut.Cool
	default:
		return false
	}
}

// ExceedanceCount returns how many of the 8 designated variables are
// hot-contributing at the point. The denominator is fixed at 8: a missing or
// skipped variable simply does not exceed, so the count stays comparable
// across points with uneven coverage.
func ExceedanceCount(p *model.SamplePoint, set model.ThresholdSet, pol Policy) int {
	count := 0
	for _, v := range model.ExceedanceVariables() {
		value, ok := p.Value(v)
		if !ok {
			continue
		}
		if Exceeds(v, value, set, pol) {
			count++
		}
	}
	return count
}
