package hotspot

import (
	"fmt"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/urbanheat/uhi-cli/internal/model"
	"github.com/urbanheat/uhi-cli/internal/sample"
	"github.com/urbanheat/uhi-cli/internal/stats"
	"github.com/urbanheat/uhi-cli/internal/threshold"
	"github.com/urbanheat/uhi-cli/internal/weights"
)

// DefaultSampleSize bounds the point set the spatial statistics run over.
const DefaultSampleSize = 1500

// DefaultSeed matches the original analysis runs, keeping results comparable.
const DefaultSeed = 42

// Input carries everything one analysis run needs. All fields are read-only
// during the run; Run never mutates its input, so concurrent callers may run
// independent analyses.
type Input struct {
	City string
	Year int

	// Layers holds the per-point observations for every variable.
	Layers model.Layers

	// FullValues optionally supplies the full-extent value population per
	// variable for threshold computation. When nil, thresholds are computed
	// from the layer observations themselves.
	FullValues map[model.Variable][]float64

	// AOI optionally restricts points to a polygon before sampling.
	AOI *geom.Polygon

	// Elevation optionally overrides the observed elevation band.
	Elevation *model.ElevationRange

	// Target is the attribute the statistics test for clustering. Empty means
	// the exceedance count, as in the original analysis.
	Target model.Variable

	SampleSize int
	Seed       int64
	Weights    weights.Config
	Policy     threshold.Policy
}

// Run executes the full pipeline: thresholds, candidate mask, sampling,
// spatial weights, Gi*, Local Moran's I, and validation. Deterministic for
// identical inputs and seed. Structural failures (no points) abort;
// data-quality issues degrade with an explanation in the report metadata.
func Run(in Input) (*model.Report, error) {
	if len(in.Layers) == 0 {
		return nil, eris.New("hotspot: no variable layers supplied")
	}
	if in.SampleSize == 0 {
		in.SampleSize = DefaultSampleSize
	}
	if in.Weights == (weights.Config{}) {
		in.Weights = weights.DefaultConfig()
	}
	if in.Policy.Directions == nil {
		in.Policy = threshold.DefaultPolicy()
	}

	log := zap.L().With(zap.String("city", in.City), zap.Int("year", in.Year))

	// 1) Percentile thresholds over the full data extent.
	full := in.FullValues
	if full == nil {
		full = make(map[model.Variable][]float64, len(in.Layers))
		for v, obs := range in.Layers {
			vals := make([]float64, len(obs))
			for i, o := range obs {
				vals[i] = o.Value
			}
			full[v] = vals
		}
	}
	cuts, skipped, err := threshold.Compute(full, in.Policy)
	if err != nil {
		return nil, eris.Wrap(err, "hotspot: compute thresholds")
	}

	// 2) Point universe and sample.
	universe := sample.BuildPoints(in.Layers, in.AOI)
	points, dropped, err := sample.Draw(universe, in.SampleSize, in.Seed, in.Target)
	if err != nil {
		return nil, eris.Wrap(err, "hotspot: draw sample")
	}
	log.Info("sample drawn",
		zap.Int("points", len(points)),
		zap.Int("dropped", dropped),
	)

	// 3) Elevation band, exceedance counts, candidate mask.
	band := model.ElevationRange{}
	if in.Elevation != nil {
		band = *in.Elevation
	} else if observed, ok := threshold.ObservedElevationRange(points); ok {
		band = observed
	}
	for i := range points {
		points[i].Exceedance = threshold.ExceedanceCount(&points[i], cuts, in.Policy)
		points[i].Candidate = threshold.Candidate(&points[i], points[i].Exceedance, in.Policy, band)
	}

	var warnings []string

	// 4) Spatial weights.
	w, err := weights.Build(points, in.Weights)
	if err != nil {
		return nil, eris.Wrap(err, "hotspot: build weights")
	}
	isolatedIDs := make([]int, 0, len(w.Isolated()))
	for _, i := range w.Isolated() {
		isolatedIDs = append(isolatedIDs, points[i].ID)
	}
	if len(isolatedIDs) > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"%d isolated point(s) excluded from spatial statistics", len(isolatedIDs)))
	}

	// 5) Target attribute and both statistics.
	xs := make([]float64, len(points))
	ids := make([]int, len(points))
	for i := range points {
		ids[i] = points[i].ID
		if in.Target == "" {
			xs[i] = float64(points[i].Exceedance)
		} else {
			xs[i] = points[i].Values[in.Target]
		}
	}

	giResults, giDegenerate := stats.Gi(xs, ids, w)
	if giDegenerate {
		warnings = append(warnings, "gi*: zero variance in target attribute; all points not significant")
	}
	moranResults, moranDegenerate := stats.LocalMoran(xs, ids, w)
	if moranDegenerate {
		warnings = append(warnings, "moran: zero variance in target attribute; all points not significant")
	}

	// 6) Validation and report assembly.
	report := &model.Report{
		City:       in.City,
		Year:       in.Year,
		Thresholds: cuts.Sorted(),
		LabelCount: make(map[model.Label]int),
		GiTiers:    make(map[model.GiTier]int),
		Clusters:   make(map[string]int),
		Points:     make([]model.PointResult, len(points)),
		Metadata: model.RunMetadata{
			Seed:             in.Seed,
			SampleSize:       len(points),
			RequestedSize:    in.SampleSize,
			DroppedPoints:    dropped,
			IsolatedPoints:   isolatedIDs,
			SkippedVariables: skipped,
			Warnings:         warnings,
			ElevationRange:   band,
		},
	}

	for i := range points {
		label := Validate(points[i].Candidate, giResults[i], moranResults[i])
		report.Points[i] = model.PointResult{
			ID:         points[i].ID,
			Lat:        points[i].Lat,
			Lon:        points[i].Lon,
			Exceedance: points[i].Exceedance,
			Candidate:  points[i].Candidate,
			Gi:         giResults[i],
			Moran:      moranResults[i],
			Label:      label,
		}
		report.LabelCount[label]++
		report.GiTiers[giResults[i].Tier]++
		report.Clusters[moranResults[i].Cluster]++
	}
	sort.Slice(report.Points, func(i, j int) bool { return report.Points[i].ID < report.Points[j].ID })

	log.Info("analysis complete",
		zap.Int("validated", report.LabelCount[model.LabelValidated]),
		zap.Int("candidate_only", report.LabelCount[model.LabelCandidateOnly]),
		zap.Int("statistical_only", report.LabelCount[model.LabelStatisticalOnly]),
	)

	return report, nil
}
