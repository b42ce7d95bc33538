package threshold

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/urbanheat/uhi-cli/internal/model"
)

// Direction states which end of a variable's distribution is hot-contributing.
type Direction string

const (
	// DirectionHigh counts a point when its value exceeds the hot cutoff.
	DirectionHigh Direction = "high"
	// DirectionLow counts a point when its value falls below the cool cutoff.
	DirectionLow Direction = "low"
)

// Policy is the exceedance-direction table plus the mask parameters. The
// direction mapping is an explicit per-variable decision, never inferred from
// the data.
type Policy struct {
	Directions     map[model.Variable]Direction `yaml:"directions"`
	UrbanCodes     []int                        `yaml:"urban_codes"`
	MinExceedance  int                          `yaml:"min_exceedance"`
	HotPercentile  float64                      `yaml:"hot_percentile"`
	CoolPercentile float64                      `yaml:"cool_percentile"`
}

// DefaultPolicy returns the standard UHI exceedance policy: surface
// temperature, lights, imperviousness, building density and population are hot
// when high; vegetation, albedo and water proximity are hot when low. Urban
// land cover is IGBP class 13.
func DefaultPolicy() Policy {
	return Policy{
		Directions: map[model.Variable]Direction{
			model.VarLST:             DirectionHigh,
			model.VarNTL:             DirectionHigh,
			model.VarImpervious:      DirectionHigh,
			model.VarBuildingDensity: DirectionHigh,
			model.VarPopulation:      DirectionHigh,
			model.VarNDVI:            DirectionLow,
			model.VarAlbedo:          DirectionLow,
			model.VarWaterDistance:   DirectionLow,
		},
		UrbanCodes:     []int{13},
		MinExceedance:  6,
		HotPercentile:  80,
		CoolPercentile: 20,
	}
}

// LoadPolicy reads a policy document from a YAML file. Omitted fields fall
// back to the defaults, so a file can flip a single direction without
// restating the whole table.
func LoadPolicy(path string) (Policy, error) {
	pol := DefaultPolicy()

	data, err := os.ReadFile(path)
	if err != nil {
		return pol, eris.Wrapf(err, "threshold: read policy %s", path)
	}

	var overlay Policy
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return pol, eris.Wrapf(err, "threshold: parse policy %s", path)
	}

	for v, d := range overlay.Directions {
		if _, err := model.ParseVariable(string(v)); err != nil {
			return pol, eris.Wrapf(err, "threshold: policy %s", path)
		}
		if d != DirectionHigh && d != DirectionLow {
			return pol, eris.Errorf("threshold: policy %s: invalid direction %q for %s", path, d, v)
		}
		pol.Directions[v] = d
	}
	if len(overlay.UrbanCodes) > 0 {
		pol.UrbanCodes = overlay.UrbanCodes
	}
	if overlay.MinExceedance > 0 {
		pol.MinExceedance = overlay.MinExceedance
	}
	if overlay.HotPercentile > 0 {
		pol.HotPercentile = overlay.HotPercentile
	}
	if overlay.CoolPercentile > 0 {
		pol.CoolPercentile = overlay.CoolPercentile
	}

	return pol, nil
}
