// Package model defines the value objects shared by the UHI analysis pipeline:
// variable layers, sample points, thresholds, statistic results, and the final
// spatial stats report.
package model

import (
	"sort"

	"github.com/rotisserie/eris"
)

// Variable identifies a satellite-derived raster layer.
type Variable string

const (
	VarLST             Variable = "lst"
	VarNDVI            Variable = "ndvi"
	VarLULC            Variable = "lulc"
	VarNTL             Variable = "ntl"
	VarAlbedo          Variable = "albedo"
	VarImpervious      Variable = "impervious"
	VarBuildingDensity Variable = "building_density"
	VarPopulation      Variable = "population"
	VarWaterDistance   Variable = "water_distance"
	VarElevation       Variable = "elevation"
)

// AllVariables lists every layer the pipeline consumes, in canonical order.
func AllVariables() []Variable {
	return []Variable{
		VarLST, VarNDVI, VarLULC, VarNTL, VarAlbedo,
		VarImpervious, VarBuildingDensity, VarPopulation,
		VarWaterDistance, VarElevation,
	}
}

// ExceedanceVariables lists the 8 continuous variables that contribute to the
// exceedance count. LULC (categorical) and Elevation (mask-only) are excluded.
func ExceedanceVariables() []Variable {
	return []Variable{
		VarLST, VarNDVI, VarNTL, VarAlbedo,
		VarImpervious, VarBuildingDensity, VarPopulation, VarWaterDistance,
	}
}

// ParseVariable validates a variable name from external input (CSV headers, flags).
func ParseVariable(name string) (Variable, error) {
	for _, v := range AllVariables() {
		if string(v) == name {
			return v, nil
		}
	}
	return "", eris.Errorf("model: unknown variable %q", name)
}

// Observation is a single sampled raster value at a geographic location.
type Observation struct {
	PointID int     `json:"point_id"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Value   float64 `json:"value"`
}

// Layers maps each variable to its observations. All layers must share the
// same point-ID universe; the sampler enforces this.
type Layers map[Variable][]Observation

// SamplePoint is one location in the analysis sample. Values holds the
// per-variable measurements present at this point; a missing key means the
// layer had no coverage here. Points are immutable once the sampler returns.
type SamplePoint struct {
	ID         int                  `json:"id"`
	Lat        float64              `json:"lat"`
	Lon        float64              `json:"lon"`
	Values     map[Variable]float64 `json:"values"`
	Exceedance int                  `json:"exceedance"`
	Candidate  bool                 `json:"candidate"`
}

// Value returns the point's measurement for v and whether it is present.
func (p *SamplePoint) Value(v Variable) (float64, bool) {
	val, ok := p.Values[v]
	return val, ok
}

// Cutoffs holds the percentile thresholds for one variable.
type Cutoffs struct {
	Hot  float64 `json:"hot"`
	Cool float64 `json:"cool"`
}

// ThresholdSet maps each scored variable to its cutoffs. Computed once per run
// from the full data extent and immutable thereafter.
type ThresholdSet map[Variable]Cutoffs

// VariableThreshold is the report-friendly (ordered) form of a ThresholdSet entry.
type VariableThreshold struct {
	Variable Variable `json:"variable"`
	Hot      float64  `json:"hot"`
	Cool     float64  `json:"cool"`
}

// Sorted flattens the set into a slice ordered by variable name so report
// output is byte-stable.
func (ts ThresholdSet) Sorted() []VariableThreshold {
	out := make([]VariableThreshold, 0, len(ts))
	for v, c := range ts {
		out = append(out, VariableThreshold{Variable: v, Hot: c.Hot, Cool: c.Cool})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Variable < out[j].Variable })
	return out
}

// Confidence is a two-tailed significance band for a z-score.
type Confidence string

const (
	ConfidenceNone Confidence = "not significant"
	Confidence90   Confidence = "90%"
	Confidence95   Confidence = "95%"
	Confidence99   Confidence = "99%"
)

// AtLeast reports whether c meets or exceeds the given band.
func (c Confidence) AtLeast(min Confidence) bool {
	return confidenceRank(c) >= confidenceRank(min) && c != ConfidenceNone
}

func confidenceRank(c Confidence) int {
	switch c {
	case Confidence90:
		return 1
	case Confidence95:
		return 2
	case Confidence99:
		return 3
	default:
		return 0
	}
}

// GiTier classifies a Getis-Ord Gi* z-score.
type GiTier string

const (
	GiNone   GiTier = "not significant"
	GiHot90  GiTier = "hot 90%"
	GiHot95  GiTier = "hot 95%"
	GiHot99  GiTier = "hot 99%"
	GiCold90 GiTier = "cold 90%"
	GiCold95 GiTier = "cold 95%"
	GiCold99 GiTier = "cold 99%"
)

// IsHotAtLeast reports whether the tier is a hot classification at or above
// the given confidence band.
func (t GiTier) IsHotAtLeast(min Confidence) bool {
	var c Confidence
	switch t {
	case GiHot90:
		c = Confidence90
	case GiHot95:
		c = Confidence95
	case GiHot99:
		c = Confidence99
	default:
		return false
	}
	return c.AtLeast(min)
}

// GiResult is the Gi* statistic for one sample point.
type GiResult struct {
	PointID int     `json:"point_id"`
	Z       float64 `json:"z"`
	Tier    GiTier  `json:"tier"`
}

// Quadrant is the Moran scatterplot quadrant for a point.
type Quadrant string

const (
	QuadrantHH Quadrant = "HH"
	QuadrantLL Quadrant = "LL"
	QuadrantHL Quadrant = "HL"
	QuadrantLH Quadrant = "LH"
)

// MoranResult is the Local Moran's I statistic for one sample point.
// Cluster is the quadrant when the score is significant at 90% or better,
// otherwise "not significant".
type MoranResult struct {
	PointID    int        `json:"point_id"`
	I          float64    `json:"i"`
	Expected   float64    `json:"expected"`
	Variance   float64    `json:"variance"`
	Z          float64    `json:"z"`
	Confidence Confidence `json:"confidence"`
	Quadrant   Quadrant   `json:"quadrant"`
	Cluster    string     `json:"cluster"`
}

// Label is the validated hotspot classification for a point.
type Label string

const (
	LabelValidated       Label = "validated hot hotspot"
	LabelCandidateOnly   Label = "candidate only"
	LabelStatisticalOnly Label = "statistically hot, not candidate"
	LabelNone            Label = "not a hotspot"
)

// PointResult merges every per-point output of the pipeline.
type PointResult struct {
	ID         int         `json:"id"`
	Lat        float64     `json:"lat"`
	Lon        float64     `json:"lon"`
	Exceedance int         `json:"exceedance"`
	Candidate  bool        `json:"candidate"`
	Gi         GiResult    `json:"gi"`
	Moran      MoranResult `json:"moran"`
	Label      Label       `json:"label"`
}

// SkippedVariable records a variable excluded from exceedance scoring and why.
type SkippedVariable struct {
	Variable Variable `json:"variable"`
	Reason   string   `json:"reason"`
}

// ElevationRange is the [min, max] elevation band used by the candidate mask.
type ElevationRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// RunMetadata explains every exclusion and fallback applied during a run so
// the report is reproducible and auditable.
type RunMetadata struct {
	Seed             int64             `json:"seed"`
	SampleSize       int               `json:"sample_size"`
	RequestedSize    int               `json:"requested_size"`
	DroppedPoints    int               `json:"dropped_points"`
	IsolatedPoints   []int             `json:"isolated_points,omitempty"`
	SkippedVariables []SkippedVariable `json:"skipped_variables,omitempty"`
	Warnings         []string          `json:"warnings,omitempty"`
	ElevationRange   ElevationRange    `json:"elevation_range"`
}

// Report is the full structured output of one analysis run. It contains no
// timestamps or other nondeterministic fields: identical inputs and seed must
// produce byte-identical JSON.
type Report struct {
	City       string              `json:"city"`
	Year       int                 `json:"year"`
	Thresholds []VariableThreshold `json:"thresholds"`
	LabelCount map[Label]int       `json:"label_count"`
	GiTiers    map[GiTier]int      `json:"gi_tiers"`
	Clusters   map[string]int      `json:"clusters"`
	Points     []PointResult       `json:"points"`
	Metadata   RunMetadata         `json:"metadata"`
}
