package render

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/vovakirdan/stairwalk/internal/core"
	"github.com/vovakirdan/stairwalk/internal/sim"
	"github.com/vovakirdan/stairwalk/internal/walk"
)

// SupportAreaDrawer draws the single- and double-support polygons of the
// current and next stances at leg length below the centre of mass.
type SupportAreaDrawer struct {
	r         Renderer
	fsm       walk.StateMachine
	buffer    *walk.PreviewBuffer
	legLength float64
	handles   []Handle
}

func NewSupportAreaDrawer(r Renderer, fsm walk.StateMachine, buffer *walk.PreviewBuffer, legLength float64) *SupportAreaDrawer {
	return &SupportAreaDrawer{r: r, fsm: fsm, buffer: buffer, legLength: legLength}
}

func (d *SupportAreaDrawer) Tick(*sim.TickContext) error {
	d.handles = RemoveAll(d.handles)
	single, double := d.fsm.CurrentStance(), d.fsm.NextStance()
	if double.IsSingleSupport() {
		single, double = double, single
	}
	z := d.buffer.COM().Z - d.legLength

	var errs []error
	for _, area := range []struct {
		name    string
		polygon []r3.Vec
		color   core.Color
	}{
		{"single support", single.SupportPolygon(), core.ColorCyan},
		{"double support", double.SupportPolygon(), core.ColorYellow},
	} {
		lifted := make([]r3.Vec, len(area.polygon))
		for i, p := range area.polygon {
			lifted[i] = r3.Vec{X: p.X, Y: p.Y, Z: z}
		}
		h, err := d.r.Polygon(lifted, area.color)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s area: %w", area.name, err))
			continue
		}
		d.handles = append(d.handles, h)
	}
	return errors.Join(errs...)
}

func supportAreas(env Env) (sim.Process, error) {
	if env.FSM == nil || env.Buffer == nil {
		return nil, errors.New("state machine and preview buffer required")
	}
	return NewSupportAreaDrawer(env.renderer(), env.FSM, env.Buffer, env.LegLength), nil
}
