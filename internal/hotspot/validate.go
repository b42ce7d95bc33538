// Package hotspot merges the candidate mask with both spatial statistics into
// validated hotspot labels, and orchestrates the full analysis run.
package hotspot

import (
	"github.com/urbanheat/uhi-cli/internal/model"
)

// Validate applies the three-way agreement policy:
//
//   - "validated hot hotspot": candidate AND Gi* hot at >=95% AND Moran HH
//     cluster (already gated at >=90% by the Moran engine)
//   - "statistically hot, not candidate": both tests agree but the threshold
//     mask missed the point, which usually means the policy needs review
//   - "candidate only": the mask fired but the statistics do not back it
//   - "not a hotspot": everything else
func Validate(candidate bool, gi model.GiResult, moran model.MoranResult) model.Label {
	statisticallyHot := gi.Tier.IsHotAtLeast(model.Confidence95) &&
		moran.Cluster == string(model.QuadrantHH)

	switch {
	case candidate && statisticallyHot:
		return model.LabelValidated
	case statisticallyHot:
		return model.LabelStatisticalOnly
	case candidate:
		return model.LabelCandidateOnly
	default:
		return model.LabelNone
	}
}
