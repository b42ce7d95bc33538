package stats

import (
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/urbanheat/uhi-cli/internal/model"
)

// LocalMoran computes Local Moran's I for the target attribute xs using the
// row-standardized weights (self excluded). Expectation and variance follow
// the randomization assumption (Anselin 1995), which is robust to non-normal
// attribute distributions; z = (I - E[I]) / sqrt(Var[I]).
//
// The quadrant crosses the sign of the point's deviation with the sign of its
// spatial lag; Cluster carries the quadrant only when the score is significant
// at 90% or better.
//
// degenerate is true when the attribute has zero variance; every point is then
// "not significant".
func LocalMoran(xs []float64, ids []int, w WeightsView) ([]model.MoranResult, bool) {
	n := len(xs)
	results := make([]model.MoranResult, n)
	for i := range results {
		results[i] = model.MoranResult{
			PointID:    ids[i],
			Confidence: model.ConfidenceNone,
			Quadrant:   model.QuadrantLL,
			Cluster:    string(model.ConfidenceNone),
		}
	}
	if n < 3 {
		return results, true
	}

	mean := stat.Mean(xs, nil)
	m2 := stat.MomentAbout(2, xs, mean, nil)
	if m2 == 0 {
		zap.L().Warn("stats: moran target attribute has zero variance; all points not significant")
		return results, true
	}
	m4 := stat.MomentAbout(4, xs, mean, nil)
	b2 := m4 / (m2 * m2)

	nf := float64(n)
	for i := 0; i < n; i++ {
		dev := xs[i] - mean

		if w.IsIsolated(i) {
			results[i].Quadrant = quadrant(dev, 0)
			continue
		}

		nbrs := w.Neighbors(i)
		std := w.Std(i)

		lag := 0.0 // spatial lag of deviations
		wi := 0.0
		wi2 := 0.0
		for k, j := range nbrs {
			lag += std[k] * (xs[j] - mean)
			wi += std[k]
			wi2 += std[k] * std[k]
		}

		I := dev / m2 * lag
		expected := -wi / (nf - 1)

		variance := wi2*(nf-b2)/(nf-1) +
			(wi*wi-wi2)*(2*b2-nf)/((nf-1)*(nf-2)) -
			(wi/(nf-1))*(wi/(nf-1))

		results[i].I = I
		results[i].Expected = expected
		results[i].Quadrant = quadrant(dev, lag)

		if variance <= 0 || math.IsNaN(variance) {
			continue
		}
		results[i].Variance = variance

		z := (I - expected) / math.Sqrt(variance)
		results[i].Z = z
		conf := Classify(z)
		results[i].Confidence = conf
		if conf != model.ConfidenceNone {
			results[i].Cluster = string(results[i].Quadrant)
		}
	}

	return results, false
}

// quadrant places a point in the Moran scatterplot: first letter from the
// point's own deviation, second from its spatial lag.
func quadrant(dev, lag float64) model.Quadrant {
	switch {
	case dev > 0 && lag > 0:
		return model.QuadrantHH
	case dev <= 0 && lag <= 0:
		return model.QuadrantLL
	case dev > 0:
		return model.QuadrantHL
	default:
		return model.QuadrantLH
	}
}
