package render

import (
	"errors"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/vovakirdan/stairwalk/internal/core"
	"github.com/vovakirdan/stairwalk/internal/sim"
	"github.com/vovakirdan/stairwalk/internal/stance"
)

// maxTrailSegments bounds the memory of a trail; older segments are
// removed first.
const maxTrailSegments = 4096

// TrajectoryDrawer leaves a trail behind a moving point.
type TrajectoryDrawer struct {
	r      Renderer
	pos    func() r3.Vec
	active func() bool
	color  core.Color

	last    r3.Vec
	started bool
	handles []Handle
}

// NewTrajectoryDrawer traces pos. When active is non-nil the trail only
// grows on ticks where it returns true.
func NewTrajectoryDrawer(r Renderer, pos func() r3.Vec, active func() bool, c core.Color) *TrajectoryDrawer {
	return &TrajectoryDrawer{r: r, pos: pos, active: active, color: c}
}

func (d *TrajectoryDrawer) Tick(*sim.TickContext) error {
	if d.active != nil && !d.active() {
		return nil
	}
	p := d.pos()
	if d.started {
		d.handles = append(d.handles, d.r.Line(d.last, p, d.color))
		if len(d.handles) > maxTrailSegments {
			if h := d.handles[0]; h != nil {
				h.Remove()
			}
			d.handles = d.handles[1:]
		}
	}
	d.last, d.started = p, true
	return nil
}

// Dash removes every other segment of the trail.
func (d *TrajectoryDrawer) Dash() {
	for i := 0; i < len(d.handles); i += 2 {
		if d.handles[i] != nil {
			d.handles[i].Remove()
			d.handles[i] = nil
		}
	}
}

// Segments returns the number of visible segments.
func (d *TrajectoryDrawer) Segments() int {
	n := 0
	for _, h := range d.handles {
		if h != nil {
			n++
		}
	}
	return n
}

func comTrail(env Env) (sim.Process, error) {
	if env.Buffer == nil {
		return nil, errors.New("preview buffer required")
	}
	return NewTrajectoryDrawer(env.renderer(), env.Buffer.COM, nil, core.ColorByName("b")), nil
}

// footTrail follows the swing foot while the other foot supports.
func footTrail(support stance.Phase, color string) Factory {
	return func(env Env) (sim.Process, error) {
		if env.FSM == nil {
			return nil, errors.New("state machine required")
		}
		fsm := env.FSM
		active := func() bool { return fsm.CurrentPhase() == support }
		return NewTrajectoryDrawer(env.renderer(), fsm.FreeFootTarget, active, core.ColorByName(color)), nil
	}
}
