package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbanheat/uhi-cli/internal/model"
)

func testReport() *model.Report {
	return &model.Report{
		City: "testville",
		Year: 2023,
		Points: []model.PointResult{
			{
				ID: 1, Lat: 10.0, Lon: 20.0, Exceedance: 8, Candidate: true,
				Gi:    model.GiResult{PointID: 1, Z: 3.2, Tier: model.GiHot99},
				Moran: model.MoranResult{PointID: 1, I: 1.5, Z: 3.9, Cluster: "HH"},
				Label: model.LabelValidated,
			},
			{
				ID: 2, Lat: 10.01, Lon: 20.0, Exceedance: 0, Candidate: false,
				Gi:    model.GiResult{PointID: 2, Z: -0.4, Tier: model.GiNone},
				Moran: model.MoranResult{PointID: 2, I: 0.1, Z: 0.3, Cluster: "not significant"},
				Label: model.LabelNone,
			},
		},
	}
}

func TestWriteShapefile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hotspots.shp")
	require.NoError(t, WriteShapefile(path, testReport()))

	r, err := shp.Open(path)
	require.NoError(t, err)
	defer r.Close()

	fields := r.Fields()
	require.Len(t, fields, 8)

	var n int
	for r.Next() {
		_, shape := r.Shape()
		pt, ok := shape.(*shp.Point)
		require.True(t, ok)
		if n == 0 {
			assert.Equal(t, 20.0, pt.X)
			assert.Equal(t, 10.0, pt.Y)
			assert.Equal(t, string(model.LabelValidated), strings.TrimSpace(r.Attribute(1)))
		}
		n++
	}
	assert.Equal(t, 2, n)
}

func TestWriteShapefileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.shp")
	assert.Error(t, WriteShapefile(path, &model.Report{}))
	assert.Error(t, WriteShapefile(path, nil))
}

func TestWriteGeoJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hotspots.geojson")
	require.NoError(t, WriteGeoJSON(path, testReport()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Type        string    `json:"type"`
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 2)
	assert.Equal(t, "Point", fc.Features[0].Geometry.Type)
	assert.Equal(t, []float64{20.0, 10.0}, fc.Features[0].Geometry.Coordinates)
	assert.Equal(t, string(model.LabelValidated), fc.Features[0].Properties["label"])
}
