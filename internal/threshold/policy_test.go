package threshold

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbanheat/uhi-cli/internal/model"
)

func TestDefaultPolicy(t *testing.T) {
	pol := DefaultPolicy()

	assert.Len(t, pol.Directions, 8)
	assert.Equal(t, DirectionHigh, pol.Directions[model.VarLST])
	assert.Equal(t, DirectionLow, pol.Directions[model.VarNDVI])
	assert.Equal(t, DirectionLow, pol.Directions[model.VarAlbedo])
	assert.Equal(t, []int{13}, pol.UrbanCodes)
	assert.Equal(t, 6, pol.MinExceedance)
	assert.Equal(t, 80.0, pol.HotPercentile)
	assert.Equal(t, 20.0, pol.CoolPercentile)
}

func writePolicy(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadPolicyOverlay(t *testing.T) {
	path := writePolicy(t, `
directions:
  water_distance: high
  albedo: high
urban_codes: [13, 14]
min_exceedance: 5
`)

	pol, err := LoadPolicy(path)
	require.NoError(t, err)

	// Flipped directions.
	assert.Equal(t, DirectionHigh, pol.Directions[model.VarWaterDistance])
	assert.Equal(t, DirectionHigh, pol.Directions[model.VarAlbedo])
	// Untouched defaults survive.
	assert.Equal(t, DirectionHigh, pol.Directions[model.VarLST])
	assert.Equal(t, DirectionLow, pol.Directions[model.VarNDVI])
	assert.Equal(t, []int{13, 14}, pol.UrbanCodes)
	assert.Equal(t, 5, pol.MinExceedance)
	assert.Equal(t, 80.0, pol.HotPercentile)
}

func TestLoadPolicyRejectsUnknownVariable(t *testing.T) {
	path := writePolicy(t, "directions:\n  soil_moisture: high\n")
	_, err := LoadPolicy(path)
	assert.Error(t, err)
}

func TestLoadPolicyRejectsBadDirection(t *testing.T) {
	path := writePolicy(t, "directions:\n  lst: sideways\n")
	_, err := LoadPolicy(path)
	assert.Error(t, err)
}

func TestLoadPolicyMissingFile(t *testing.T) {
	_, err := LoadPolicy(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
