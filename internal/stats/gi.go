package stats

import (
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/urbanheat/uhi-cli/internal/model"
)

// Gi computes the Getis-Ord Gi* statistic (the "star" variant: the sum over
// neighbors includes the point itself, with self-weight 1) for the target
// attribute xs, aligned index-for-index with ids and the weights matrix.
//
// The formula requires the unstandardized weights; the matrix's raw view is
// used here while its row-standardized view belongs to Moran's I.
//
// degenerate is true when the attribute has zero variance: every point is then
// "not significant" and no z-scores are produced (all zero).
func Gi(xs []float64, ids []int, w WeightsView) ([]model.GiResult, bool) {
	n := len(xs)
	results := make([]model.GiResult, n)
	for i := range results {
		results[i] = model.GiResult{PointID: ids[i], Tier: model.GiNone}
	}
	if n < 2 {
		return results, true
	}

	mean := stat.Mean(xs, nil)
	// Population standard deviation, as the Gi* derivation requires.
	s := math.Sqrt(stat.MomentAbout(2, xs, mean, nil))
	if s == 0 {
		zap.L().Warn("stats: gi* target attribute has zero variance; all points not significant")
		return results, true
	}

	nf := float64(n)
	for i := 0; i < n; i++ {
		if w.IsIsolated(i) {
			// Excluded from the statistic; stays "not significant".
			continue
		}

		// Self term: weight 1 on x_i.
		sumW := 1.0
		sumW2 := 1.0
		sumWX := xs[i]
		nbrs := w.Neighbors(i)
		raw := w.Raw(i)
		for k, j := range nbrs {
			sumW += raw[k]
			sumW2 += raw[k] * raw[k]
			sumWX += raw[k] * xs[j]
		}

		denom := s * math.Sqrt((nf*sumW2-sumW*sumW)/(nf-1))
		if denom == 0 {
			continue
		}
		z := (sumWX - mean*sumW) / denom
		results[i].Z = z
		results[i].Tier = ClassifyGi(z)
	}

	return results, false
}

// WeightsView is the subset of the weights matrix the statistics need.
// Satisfied by *weights.Matrix.
type WeightsView interface {
	Len() int
	Neighbors(i int) []int
	Raw(i int) []float64
	Std(i int) []float64
	IsIsolated(i int) bool
}
