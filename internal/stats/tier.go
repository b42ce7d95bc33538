// Package stats implements the local spatial statistics: Getis-Ord Gi* and
// Local Moran's I, with two-tailed significance classification.
package stats

import (
	"math"

	"github.com/urbanheat/uhi-cli/internal/model"
)

// Two-tailed critical values.
const (
	critical90 = 1.65
	critical95 = 1.96
	critical99 = 2.58
)

// Classify maps a z-score to its two-tailed confidence band.
func Classify(z float64) model.Confidence {
	abs := math.Abs(z)
	switch {
	case abs > critical99:
		return model.Confidence99
	case abs > critical95:
		return model.Confidence95
	case abs > critical90:
		return model.Confidence90
	default:
		return model.ConfidenceNone
	}
}

// ClassifyGi maps a Gi* z-score to a hot/cold tier: the sign picks hot versus
// cold, the magnitude the confidence band.
func ClassifyGi(z float64) model.GiTier {
	conf := Classify(z)
	if conf == model.ConfidenceNone {
		return model.GiNone
	}
	if z > 0 {
		switch conf {
		case model.Confidence99:
			return model.GiHot99
		case model.Confidence95:
			return model.GiHot95
		default:
			return model.GiHot90
		}
	}
	switch conf {
	case model.Confidence99:
		return model.GiCold99
	case model.Confidence95:
		return model.GiCold95
	default:
		return model.GiCold90
	}
}
