// Package export writes analysis reports to GIS interchange formats.
package export

import (
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/urbanheat/uhi-cli/internal/model"
)

// WriteShapefile writes the report's sample points as a point shapefile with
// the label, statistics, and exceedance count as attributes. go-shp creates
// the companion .shx and .dbf alongside path.
func WriteShapefile(path string, report *model.Report) error {
	if report == nil || len(report.Points) == 0 {
		return eris.New("export: report has no points")
	}

	w, err := shp.Create(path, shp.POINT)
	if err != nil {
		return eris.Wrapf(err, "export: create shapefile %s", path)
	}
	defer w.Close()

	fields := []shp.Field{
		shp.NumberField("POINT_ID", 10),
		shp.StringField("LABEL", 40),
		shp.NumberField("EXCEED", 4),
		shp.FloatField("GI_Z", 16, 6),
		shp.StringField("GI_TIER", 16),
		shp.FloatField("MORAN_I", 16, 6),
		shp.FloatField("MORAN_Z", 16, 6),
		shp.StringField("CLUSTER", 16),
	}
	w.SetFields(fields)

	for row, p := range report.Points {
		w.Write(&shp.Point{X: p.Lon, Y: p.Lat})

		values := []any{
			p.ID,
			string(p.Label),
			p.Exceedance,
			p.Gi.Z,
			string(p.Gi.Tier),
			p.Moran.I,
			p.Moran.Z,
			p.Moran.Cluster,
		}
		for col, v := range values {
			if err := w.WriteAttribute(row, col, v); err != nil {
				return eris.Wrapf(err, "export: write attribute row %d col %d", row, col)
			}
		}
	}

	zap.L().Info("export: shapefile written",
		zap.String("path", path),
		zap.Int("points", len(report.Points)),
	)
	return nil
}
