package render

import (
	"errors"

	"github.com/vovakirdan/stairwalk/internal/core"
	"github.com/vovakirdan/stairwalk/internal/sim"
	"github.com/vovakirdan/stairwalk/internal/walk"
)

// PreviewDrawer draws the COM trajectory planned by the controller: blue
// up to the stance switch, yellow after it.
type PreviewDrawer struct {
	r       Renderer
	buffer  *walk.PreviewBuffer
	handles []Handle
}

func NewPreviewDrawer(r Renderer, buffer *walk.PreviewBuffer) *PreviewDrawer {
	return &PreviewDrawer{r: r, buffer: buffer}
}

func (d *PreviewDrawer) Tick(*sim.TickContext) error {
	d.handles = RemoveAll(d.handles)
	start := d.buffer.PointMass()
	d.handles = append(d.handles, d.r.Point(start.Pos, core.ColorMagenta))

	preview := d.buffer.Preview()
	if preview.Empty() {
		return nil
	}
	prev := start.Pos
	for i, p := range preview.Trajectory(start) {
		c := core.ColorBlue
		if i > preview.SwitchStep {
			c = core.ColorYellow
		}
		d.handles = append(d.handles, d.r.Point(p, c), d.r.Line(prev, p, c))
		prev = p
	}
	return nil
}

func previewDrawer(env Env) (sim.Process, error) {
	if env.Buffer == nil {
		return nil, errors.New("preview buffer required")
	}
	return NewPreviewDrawer(env.renderer(), env.Buffer), nil
}
