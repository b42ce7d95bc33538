package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbanheat/uhi-cli/internal/model"
	"github.com/urbanheat/uhi-cli/internal/weights"
)

// grid55 lays out a 5x5 grid near the equator with ~1.11 km spacing and
// returns rook-contiguity weights (1.2 km band: orthogonal neighbors only).
func grid55(t *testing.T) ([]model.SamplePoint, *weights.Matrix) {
	t.Helper()
	points := make([]model.SamplePoint, 0, 25)
	for r := 0; r < 5; r++ {
		for c := 0; c < 5; c++ {
			points = append(points, model.SamplePoint{
				ID:  r*5 + c,
				Lat: float64(r) * 0.01,
				Lon: float64(c) * 0.01,
			})
		}
	}
	m, err := weights.Build(points, weights.Config{
		Policy: weights.PolicyBand, BandKM: 1.2, Scheme: weights.SchemeBinary,
	})
	require.NoError(t, err)
	return points, m
}

func ids(points []model.SamplePoint) []int {
	out := make([]int, len(points))
	for i, p := range points {
		out[i] = p.ID
	}
	return out
}

// hotBlock returns LST-like values: a 3x3 block of 40 in the grid interior
// surrounded by 10.
func hotBlock() []float64 {
	xs := make([]float64, 25)
	for r := 0; r < 5; r++ {
		for c := 0; c < 5; c++ {
			if r >= 1 && r <= 3 && c >= 1 && c <= 3 {
				xs[r*5+c] = 40
			} else {
				xs[r*5+c] = 10
			}
		}
	}
	return xs
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		z    float64
		want model.Confidence
	}{
		{"zero", 0, model.ConfidenceNone},
		{"just under 90", 1.65, model.ConfidenceNone},
		{"90", 1.7, model.Confidence90},
		{"95", 2.0, model.Confidence95},
		{"99", 3.0, model.Confidence99},
		{"negative 99", -3.0, model.Confidence99},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.z))
		})
	}
}

func TestClassifyGi(t *testing.T) {
	tests := []struct {
		z    float64
		want model.GiTier
	}{
		{0, model.GiNone},
		{1.8, model.GiHot90},
		{2.2, model.GiHot95},
		{3.3, model.GiHot99},
		{-1.8, model.GiCold90},
		{-2.2, model.GiCold95},
		{-3.3, model.GiCold99},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyGi(tt.z), "z=%v", tt.z)
	}
}

func TestGiConstantAttribute(t *testing.T) {
	points, m := grid55(t)
	xs := make([]float64, 25)
	for i := range xs {
		xs[i] = 7.5
	}

	results, degenerate := Gi(xs, ids(points), m)
	assert.True(t, degenerate)
	for _, r := range results {
		assert.Zero(t, r.Z)
		assert.Equal(t, model.GiNone, r.Tier)
	}
}

func TestGiHotBlock(t *testing.T) {
	points, m := grid55(t)
	results, degenerate := Gi(hotBlock(), ids(points), m)
	require.False(t, degenerate)

	// Center of the hot block: all neighbors hot.
	center := results[12]
	assert.InDelta(t, 3.27, center.Z, 0.02)
	assert.Equal(t, model.GiHot99, center.Tier)

	// Grid corners: no hot neighbors, not significant.
	for _, i := range []int{0, 4, 20, 24} {
		assert.Equal(t, model.GiNone, results[i].Tier, "corner %d", i)
		assert.Greater(t, results[i].Z, -1.65)
	}
}

func TestGiIsolatedPointExcluded(t *testing.T) {
	points := []model.SamplePoint{
		{ID: 0, Lat: 0, Lon: 0},
		{ID: 1, Lat: 0, Lon: 0.005},
		{ID: 2, Lat: 0, Lon: 2.0},
	}
	m, err := weights.Build(points, weights.Config{
		Policy: weights.PolicyBand, BandKM: 1.0, Scheme: weights.SchemeBinary,
	})
	require.NoError(t, err)
	require.Equal(t, []int{2}, m.Isolated())

	results, degenerate := Gi([]float64{1, 2, 3}, ids(points), m)
	require.False(t, degenerate)
	assert.Zero(t, results[2].Z)
	assert.Equal(t, model.GiNone, results[2].Tier)
}

func TestLocalMoranHotBlock(t *testing.T) {
	points, m := grid55(t)
	results, degenerate := LocalMoran(hotBlock(), ids(points), m)
	require.False(t, degenerate)

	// Block interior: high value, high lag, strongly significant.
	center := results[12]
	assert.Equal(t, model.QuadrantHH, center.Quadrant)
	assert.Equal(t, string(model.QuadrantHH), center.Cluster)
	assert.InDelta(t, 1.778, center.I, 0.01)
	assert.InDelta(t, -1.0/24, center.Expected, 1e-9)
	assert.InDelta(t, 3.93, center.Z, 0.02)

	// Grid corner: low value among low neighbors.
	assert.Equal(t, model.QuadrantLL, results[0].Quadrant)
}

func TestLocalMoranCheckerboard(t *testing.T) {
	points, m := grid55(t)
	xs := make([]float64, 25)
	for r := 0; r < 5; r++ {
		for c := 0; c < 5; c++ {
			if (r+c)%2 == 0 {
				xs[r*5+c] = 1
			}
		}
	}

	results, degenerate := LocalMoran(xs, ids(points), m)
	require.False(t, degenerate)

	// Interior points sit opposite all their neighbors: negative
	// autocorrelation, classified HL or LH, never HH/LL.
	interior := []int{6, 7, 8, 11, 12, 13, 16, 17, 18}
	for _, i := range interior {
		q := results[i].Quadrant
		assert.Contains(t, []model.Quadrant{model.QuadrantHL, model.QuadrantLH}, q, "point %d", i)
		assert.Negative(t, results[i].I, "point %d", i)
	}

	// The center high point is a significant HL outlier.
	center := results[12]
	assert.Equal(t, model.QuadrantHL, center.Quadrant)
	assert.InDelta(t, -1.0, center.I, 1e-9)
	assert.InDelta(t, -2.06, center.Z, 0.02)
	assert.Equal(t, model.Confidence95, center.Confidence)
	assert.Equal(t, string(model.QuadrantHL), center.Cluster)
}

func TestLocalMoranConstantAttribute(t *testing.T) {
	points, m := grid55(t)
	xs := make([]float64, 25)

	results, degenerate := LocalMoran(xs, ids(points), m)
	assert.True(t, degenerate)
	for _, r := range results {
		assert.Equal(t, model.ConfidenceNone, r.Confidence)
		assert.Equal(t, string(model.ConfidenceNone), r.Cluster)
	}
}

func TestLocalMoranInsignificantClusterLabel(t *testing.T) {
	points, m := grid55(t)

	// Mild noise: no point should reach significance, so every cluster label
	// stays "not significant" regardless of quadrant.
	xs := make([]float64, 25)
	for i := range xs {
		xs[i] = float64(i % 3)
	}
	results, degenerate := LocalMoran(xs, ids(points), m)
	require.False(t, degenerate)
	for _, r := range results {
		if r.Confidence == model.ConfidenceNone {
			assert.Equal(t, string(model.ConfidenceNone), r.Cluster)
		}
	}
}
