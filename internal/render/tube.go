package render

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/vovakirdan/stairwalk/internal/core"
	"github.com/vovakirdan/stairwalk/internal/sim"
	"github.com/vovakirdan/stairwalk/internal/walk"
)

// accScale maps accelerations (m/s²) to drawn lengths (m).
const accScale = 0.1

// TubeDrawer draws the controller's tube: primal polytopes around the COM
// targets, dual acceleration cones at the COM and the commanded COM
// acceleration.
type TubeDrawer struct {
	r          Renderer
	controller walk.Controller
	buffer     *walk.PreviewBuffer

	primal []Handle
	dual   []Handle
	comdd  []Handle
}

func NewTubeDrawer(r Renderer, controller walk.Controller, buffer *walk.PreviewBuffer) *TubeDrawer {
	return &TubeDrawer{r: r, controller: controller, buffer: buffer}
}

// Tick draws the primal and the dual even when the other fails, and
// reports both failures.
func (d *TubeDrawer) Tick(*sim.TickContext) error {
	tube := d.controller.Tube()
	var errs []error
	if err := d.drawPrimal(tube); err != nil {
		errs = append(errs, fmt.Errorf("drawing of polytopes failed: %w", err))
	}
	if err := d.drawDual(tube); err != nil {
		errs = append(errs, fmt.Errorf("drawing of dual cones failed: %w", err))
	}
	d.drawCOMAcceleration()
	return errors.Join(errs...)
}

func stanceColors(tube walk.Tube) []core.Color {
	colors := []core.Color{core.ColorYellow, core.ColorCyan}
	if tube.StartStance.IsSingleSupport() {
		colors[0], colors[1] = colors[1], colors[0]
	}
	return colors
}

func (d *TubeDrawer) drawPrimal(tube walk.Tube) error {
	d.primal = RemoveAll(d.primal)
	if len(tube.Primal) == 0 {
		return errors.New("no polytopes")
	}
	colors := stanceColors(tube)
	for i, vertices := range tube.Primal {
		c := colors[i%len(colors)]
		if len(vertices) == 1 {
			d.primal = append(d.primal, d.r.Point(vertices[0], c))
			continue
		}
		h, err := d.r.Polyhedron(vertices, c)
		if err != nil {
			return err
		}
		d.primal = append(d.primal, h)
	}
	return nil
}

func (d *TubeDrawer) drawDual(tube walk.Tube) error {
	d.dual = RemoveAll(d.dual)
	if len(tube.Dual) == 0 {
		return errors.New("no cones")
	}
	trans := d.buffer.COM()
	colors := stanceColors(tube)
	for i, cone := range tube.Dual {
		if len(cone) == 0 {
			return fmt.Errorf("cone %d is empty", i)
		}
		apex := r3.Add(trans, r3.Scale(accScale, cone[0]))
		section := make([]r3.Vec, 0, len(cone)-1)
		for _, v := range cone[1:] {
			section = append(section, r3.Add(trans, r3.Scale(accScale, v)))
		}
		h, err := d.r.Cone(apex, section, colors[i%len(colors)])
		if err != nil {
			return err
		}
		d.dual = append(d.dual, h)
	}
	return nil
}

func (d *TubeDrawer) drawCOMAcceleration() {
	d.comdd = RemoveAll(d.comdd)
	trans := d.buffer.COM()
	tip := r3.Add(trans, r3.Scale(accScale, d.controller.TargetCOMAcceleration()))
	d.comdd = append(d.comdd,
		d.r.Line(trans, tip, core.ColorRed),
		d.r.Point(trans, core.ColorRed),
		d.r.Point(tip, core.ColorRed))
}

func tubeDrawer(env Env) (sim.Process, error) {
	if env.Controller == nil || env.Buffer == nil {
		return nil, errors.New("controller and preview buffer required")
	}
	return NewTubeDrawer(env.renderer(), env.Controller, env.Buffer), nil
}
