package export

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/urbanheat/uhi-cli/internal/model"
)

// WriteGeoJSON writes the report's sample points as a GeoJSON FeatureCollection.
func WriteGeoJSON(path string, report *model.Report) error {
	if report == nil || len(report.Points) == 0 {
		return eris.New("export: report has no points")
	}

	fc := &geojson.FeatureCollection{}
	for _, p := range report.Points {
		pt := geom.NewPointFlat(geom.XY, []float64{p.Lon, p.Lat})
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       strconv.Itoa(p.ID),
			Geometry: pt,
			Properties: map[string]any{
				"label":      string(p.Label),
				"exceedance": p.Exceedance,
				"candidate":  p.Candidate,
				"gi_z":       p.Gi.Z,
				"gi_tier":    string(p.Gi.Tier),
				"moran_i":    p.Moran.I,
				"moran_z":    p.Moran.Z,
				"cluster":    p.Moran.Cluster,
			},
		})
	}

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return eris.Wrap(err, "export: marshal geojson")
	}
	return eris.Wrapf(os.WriteFile(path, data, 0o644), "export: write %s", path)
}
