// Package sample assembles per-variable observations into sample points and
// draws a bounded, seed-reproducible subset for the spatial statistics.
package sample

import (
	"math/rand"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"go.uber.org/zap"

	"github.com/urbanheat/uhi-cli/internal/model"
)

// ErrEmptyAOI means no sample points were available after coverage and AOI
// filtering. This is structural: the run aborts.
var ErrEmptyAOI = eris.New("sample: no points available in AOI")

// BuildPoints merges variable layers into one point set keyed by point ID.
// Coordinates come from the first layer that observes a point (canonical
// variable order). When aoi is non-nil, points outside the polygon are
// dropped. The result is ordered by point ID.
func BuildPoints(layers model.Layers, aoi *geom.Polygon) []model.SamplePoint {
	byID := make(map[int]*model.SamplePoint)

	for _, v := range model.AllVariables() {
		for _, obs := range layers[v] {
			p, ok := byID[obs.PointID]
			if !ok {
				p = &model.SamplePoint{
					ID:     obs.PointID,
					Lat:    obs.Lat,
					Lon:    obs.Lon,
					Values: make(map[model.Variable]float64),
				}
				byID[obs.PointID] = p
			}
			p.Values[v] = obs.Value
		}
	}

	points := make([]model.SamplePoint, 0, len(byID))
	for _, p := range byID {
		if aoi != nil && !polygonContains(aoi, p.Lon, p.Lat) {
			continue
		}
		points = append(points, *p)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].ID < points[j].ID })
	return points
}

// polygonContains tests lon/lat containment: inside the outer ring and not
// inside any hole.
func polygonContains(poly *geom.Polygon, lon, lat float64) bool {
	pt := geom.Coord{lon, lat}
	if poly.NumLinearRings() == 0 {
		return false
	}
	if !xy.IsPointInRing(poly.Layout(), pt, poly.LinearRing(0).FlatCoords()) {
		return false
	}
	for i := 1; i < poly.NumLinearRings(); i++ {
		if xy.IsPointInRing(poly.Layout(), pt, poly.LinearRing(i).FlatCoords()) {
			return false
		}
	}
	return true
}

// eligible reports whether a point carries enough coverage for the candidate
// mask to be evaluated: LULC and elevation must be present, plus the target
// attribute when one is configured.
func eligible(p *model.SamplePoint, target model.Variable) bool {
	if _, ok := p.Value(model.VarLULC); !ok {
		return false
	}
	if _, ok := p.Value(model.VarElevation); !ok {
		return false
	}
	if target != "" {
		if _, ok := p.Value(target); !ok {
			return false
		}
	}
	return true
}

// Draw selects min(size, available) points by uniform random sampling without
// replacement. Points that cannot evaluate the candidate mask (or that miss
// the target attribute) are dropped first and counted. The draw is
// deterministic for a given seed: candidates are ordered by ID before
// shuffling and the selection is re-sorted by ID.
func Draw(points []model.SamplePoint, size int, seed int64, target model.Variable) ([]model.SamplePoint, int, error) {
	if size <= 0 {
		return nil, 0, eris.Errorf("sample: invalid sample size %d", size)
	}

	candidates := make([]model.SamplePoint, 0, len(points))
	for i := range points {
		if eligible(&points[i], target) {
			candidates = append(candidates, points[i])
		}
	}
	dropped := len(points) - len(candidates)
	if dropped > 0 {
		zap.L().Warn("sample: dropped points without mask coverage",
			zap.Int("dropped", dropped),
			zap.Int("remaining", len(candidates)),
		)
	}
	if len(candidates) == 0 {
		return nil, dropped, ErrEmptyAOI
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })

	if len(candidates) > size {
		rng := rand.New(rand.NewSource(seed))
		rng.Shuffle(len(candidates), func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})
		candidates = candidates[:size]
		sort.Slice(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })
	}

	return candidates, dropped, nil
}
