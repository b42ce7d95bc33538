package sample

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/urbanheat/uhi-cli/internal/model"
)

func gridLayers(n int) model.Layers {
	layers := make(model.Layers)
	for _, v := range model.AllVariables() {
		for i := 0; i < n; i++ {
			layers[v] = append(layers[v], model.Observation{
				PointID: i,
				Lat:     float64(i) * 0.01,
				Lon:     float64(i) * 0.01,
				Value:   float64(i),
			})
		}
	}
	return layers
}

func TestBuildPointsMergesLayers(t *testing.T) {
	points := BuildPoints(gridLayers(5), nil)
	require.Len(t, points, 5)

	// Ordered by ID with all variables attached.
	for i, p := range points {
		assert.Equal(t, i, p.ID)
		assert.Len(t, p.Values, len(model.AllVariables()))
	}
}

func TestBuildPointsAOIFilter(t *testing.T) {
	// Unit square around the first two points only.
	aoi := geom.NewPolygon(geom.XY)
	_, err := aoi.SetCoords([][]geom.Coord{{
		{-0.005, -0.005}, {0.015, -0.005}, {0.015, 0.015}, {-0.005, 0.015}, {-0.005, -0.005},
	}})
	require.NoError(t, err)

	points := BuildPoints(gridLayers(5), aoi)
	require.Len(t, points, 2)
	assert.Equal(t, 0, points[0].ID)
	assert.Equal(t, 1, points[1].ID)
}

func TestDrawDeterministic(t *testing.T) {
	points := BuildPoints(gridLayers(100), nil)

	a, _, err := Draw(points, 20, 42, "")
	require.NoError(t, err)
	b, _, err := Draw(points, 20, 42, "")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, _, err := Draw(points, 20, 7, "")
	require.NoError(t, err)
	assert.NotEqual(t, a, c, "different seeds should select different points")
}

func TestDrawSizeBounds(t *testing.T) {
	points := BuildPoints(gridLayers(10), nil)

	got, dropped, err := Draw(points, 1500, 42, "")
	require.NoError(t, err)
	assert.Len(t, got, 10, "min(target, available)")
	assert.Zero(t, dropped)

	got, _, err = Draw(points, 4, 42, "")
	require.NoError(t, err)
	assert.Len(t, got, 4)

	// Selection stays ordered by ID.
	for i := 1; i < len(got); i++ {
		assert.Less(t, got[i-1].ID, got[i].ID)
	}
}

func TestDrawDropsPointsWithoutMaskCoverage(t *testing.T) {
	points := BuildPoints(gridLayers(10), nil)
	// Strip LULC from three points.
	for i := 0; i < 3; i++ {
		delete(points[i].Values, model.VarLULC)
	}

	got, dropped, err := Draw(points, 1500, 42, "")
	require.NoError(t, err)
	assert.Len(t, got, 7)
	assert.Equal(t, 3, dropped)
}

func TestDrawTargetCoverage(t *testing.T) {
	points := BuildPoints(gridLayers(10), nil)
	delete(points[4].Values, model.VarLST)

	got, dropped, err := Draw(points, 1500, 42, model.VarLST)
	require.NoError(t, err)
	assert.Len(t, got, 9)
	assert.Equal(t, 1, dropped)
}

func TestDrawEmptyAOI(t *testing.T) {
	_, _, err := Draw(nil, 1500, 42, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyAOI)

	// Points exist but none can evaluate the mask.
	points := BuildPoints(gridLayers(3), nil)
	for i := range points {
		delete(points[i].Values, model.VarElevation)
	}
	_, dropped, err := Draw(points, 1500, 42, "")
	assert.ErrorIs(t, err, ErrEmptyAOI)
	assert.Equal(t, 3, dropped)
}

func TestDrawInvalidSize(t *testing.T) {
	points := BuildPoints(gridLayers(3), nil)
	_, _, err := Draw(points, 0, 42, "")
	assert.Error(t, err)
}
