// Package weights derives spatial neighbor structures over sampled points.
// It produces both the raw weights used by the Gi* formula and the
// row-standardized weights used for spatial lags.
package weights

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/urbanheat/uhi-cli/internal/model"
)

// Neighbor policies.
const (
	PolicyKNN  = "knn"
	PolicyBand = "band"
)

// Weight schemes.
const (
	SchemeBinary          = "binary"
	SchemeInverseDistance = "idw"
)

// ErrDegenerateWeights marks a point with zero neighbors. Such points are
// excluded from the statistics and recorded in the run metadata; the run
// itself continues.
var ErrDegenerateWeights = eris.New("weights: isolated point with zero neighbors")

// Config selects the neighbor policy and weighting scheme.
type Config struct {
	Policy string  `json:"policy" yaml:"policy" mapstructure:"policy"`
	K      int     `json:"k" yaml:"k" mapstructure:"k"`
	BandKM float64 `json:"band_km" yaml:"band_km" mapstructure:"band_km"`
	Scheme string  `json:"scheme" yaml:"scheme" mapstructure:"scheme"`
}

// DefaultConfig is 8-nearest-neighbor binary weights.
func DefaultConfig() Config {
	return Config{Policy: PolicyKNN, K: 8, Scheme: SchemeBinary}
}

// Matrix is the neighbor relation over a fixed point set, indexed by point
// position (not ID). The diagonal is zero: a point is never its own neighbor
// here; the Gi* engine adds the self term itself. K-nearest neighborhoods are
// asymmetric and that asymmetry is preserved. Immutable once built.
type Matrix struct {
	n         int
	neighbors [][]int
	raw       [][]float64
	std       [][]float64
	isolated  []int
	isoSet    map[int]bool
}

// Len returns the number of points the matrix covers.
func (m *Matrix) Len() int { return m.n }

// Neighbors returns the neighbor indices of point i, excluding i.
func (m *Matrix) Neighbors(i int) []int { return m.neighbors[i] }

// Raw returns the unstandardized weights aligned with Neighbors(i).
func (m *Matrix) Raw(i int) []float64 { return m.raw[i] }

// Std returns the row-standardized weights aligned with Neighbors(i).
// Each non-isolated row sums to 1.
func (m *Matrix) Std(i int) []float64 { return m.std[i] }

// Isolated lists the indices of points with zero neighbors, ascending.
func (m *Matrix) Isolated() []int { return m.isolated }

// IsIsolated reports whether point i has zero neighbors.
func (m *Matrix) IsIsolated(i int) bool { return m.isoSet[i] }

const earthRadiusKM = 6371.0

// HaversineKM is the great-circle distance between two lat/lon points in km.
func HaversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	const deg = math.Pi / 180
	dLat := (lat2 - lat1) * deg
	dLon := (lon2 - lon1) * deg
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*deg)*math.Cos(lat2*deg)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKM * math.Asin(math.Min(1, math.Sqrt(a)))
}

// Build computes the weights matrix for the sampled points under cfg.
// Distance-band neighborhoods that leave a point isolated are retried once
// with a doubled band for that point; still-isolated points are flagged.
func Build(points []model.SamplePoint, cfg Config) (*Matrix, error) {
	n := len(points)
	if n < 2 {
		return nil, eris.Errorf("weights: need at least 2 points, got %d", n)
	}
	switch cfg.Policy {
	case PolicyKNN:
		if cfg.K < 1 {
			return nil, eris.Errorf("weights: k must be positive, got %d", cfg.K)
		}
	case PolicyBand:
		if cfg.BandKM <= 0 {
			return nil, eris.Errorf("weights: band_km must be positive, got %v", cfg.BandKM)
		}
	default:
		return nil, eris.Errorf("weights: unknown policy %q", cfg.Policy)
	}
	if cfg.Scheme != SchemeBinary && cfg.Scheme != SchemeInverseDistance {
		return nil, eris.Errorf("weights: unknown scheme %q", cfg.Scheme)
	}

	// Pairwise distances. n is bounded by the sample size (1500), so the
	// quadratic table stays small.
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := HaversineKM(points[i].Lat, points[i].Lon, points[j].Lat, points[j].Lon)
			dist[i][j] = d
			dist[j][i] = d
		}
	}

	m := &Matrix{
		n:         n,
		neighbors: make([][]int, n),
		raw:       make([][]float64, n),
		std:       make([][]float64, n),
		isoSet:    make(map[int]bool),
	}

	for i := 0; i < n; i++ {
		var nbrs []int
		switch cfg.Policy {
		case PolicyKNN:
			nbrs = kNearest(dist[i], i, cfg.K)
		case PolicyBand:
			nbrs = withinBand(dist[i], i, cfg.BandKM)
			if len(nbrs) == 0 {
				// Documented fallback: widen the band once before flagging.
				nbrs = withinBand(dist[i], i, cfg.BandKM*2)
				if len(nbrs) > 0 {
					zap.L().Warn("weights: widened band for isolated point",
						zap.Int("point", points[i].ID),
						zap.Float64("band_km", cfg.BandKM*2),
					)
				}
			}
		}

		if len(nbrs) == 0 {
			m.isolated = append(m.isolated, i)
			m.isoSet[i] = true
			m.neighbors[i] = nil
			m.raw[i] = nil
			m.std[i] = nil
			continue
		}

		raw := make([]float64, len(nbrs))
		sum := 0.0
		for k, j := range nbrs {
			switch cfg.Scheme {
			case SchemeBinary:
				raw[k] = 1
			case SchemeInverseDistance:
				raw[k] = 1 / math.Max(dist[i][j], 1e-9)
			}
			sum += raw[k]
		}

		std := make([]float64, len(raw))
		for k := range raw {
			std[k] = raw[k] / sum
		}

		m.neighbors[i] = nbrs
		m.raw[i] = raw
		m.std[i] = std
	}

	if len(m.isolated) > 0 {
		zap.L().Warn("weights: isolated points excluded from statistics",
			zap.Int("count", len(m.isolated)),
		)
	}

	return m, nil
}

// kNearest returns up to k nearest neighbor indices of i, ties broken by
// index so the result is deterministic.
func kNearest(row []float64, i, k int) []int {
	idx := make([]int, 0, len(row)-1)
	for j := range row {
		if j != i {
			idx = append(idx, j)
		}
	}
	sort.Slice(idx, func(a, b int) bool {
		if row[idx[a]] != row[idx[b]] {
			return row[idx[a]] < row[idx[b]]
		}
		return idx[a] < idx[b]
	})
	if len(idx) > k {
		idx = idx[:k]
	}
	sort.Ints(idx)
	return idx
}

// withinBand returns indices within the distance band of i, ascending.
func withinBand(row []float64, i int, bandKM float64) []int {
	var idx []int
	for j := range row {
		if j != i && row[j] <= bandKM {
			idx = append(idx, j)
		}
	}
	return idx
}
