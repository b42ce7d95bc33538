package threshold

import (
	"math"

	"github.com/urbanheat/uhi-cli/internal/model"
)

// ObservedElevationRange returns the [min, max] elevation over points with
// valid elevation values. ok is false when no point carries elevation.
func ObservedElevationRange(points []model.SamplePoint) (model.ElevationRange, bool) {
	min, max := math.Inf(1), math.Inf(-1)
	found := false
	for i := range points {
		elev, ok := points[i].Value(model.VarElevation)
		if !ok || math.IsNaN(elev) {
			continue
		}
		found = true
		if elev < min {
			min = elev
		}
		if elev > max {
			max = elev
		}
	}
	if !found {
		return model.ElevationRange{}, false
	}
	return model.ElevationRange{Min: min, Max: max}, true
}

// Candidate evaluates the multi-criteria candidate-hotspot mask for a point:
// the exceedance count must reach the policy minimum, the land cover must be
// one of the urban codes, and the elevation must sit inside the AOI band.
// A point missing LULC or elevation fails the mask; it is never a candidate
// by default.
func Candidate(p *model.SamplePoint, count int, pol Policy, band model.ElevationRange) bool {
	if count < pol.MinExceedance {
		return false
	}

	lulc, ok := p.Value(model.VarLULC)
	if !ok {
		return false
	}
	urban := false
	for _, code := range pol.UrbanCodes {
		if int(lulc) == code {
			urban = true
			break
		}
	}
	if !urban {
		return false
	}

	elev, ok := p.Value(model.VarElevation)
	if !ok {
		return false
	}
	return elev >= band.Min && elev <= band.Max
}
