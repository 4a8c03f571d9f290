package render

import (
	"github.com/vovakirdan/stairwalk/internal/core"
	"github.com/vovakirdan/stairwalk/internal/stance"
)

// viewHalfSize is the half-width in meters of the default top-down view;
// it covers the staircase outer radius with some margin.
const viewHalfSize = 2.2

// StaircaseViewport frames the staircase on a width x height screen.
func StaircaseViewport(width, height int) core.Viewport {
	return core.FitViewport(viewHalfSize, width, height)
}

func init() {
	Register("com_trail", "trail of the centre of mass", comTrail)
	Register("left_foot_trail", "trail of the left foot while it swings", footTrail(stance.SingleSupportRight, "g"))
	Register("right_foot_trail", "trail of the right foot while it swings", footTrail(stance.SingleSupportLeft, "r"))
	Register("forces", "contact forces, red background when support is infeasible", forces)
	Register("preview", "previewed COM trajectory", previewDrawer)
	Register("support_areas", "single- and double-support areas", supportAreas)
	Register("tube", "controller tube: polytopes, acceleration cones and COM acceleration", tubeDrawer)
	Register("frames", "write every rendered frame to a directory", frames)
}
