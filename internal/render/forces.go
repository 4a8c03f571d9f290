package render

import (
	"errors"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/vovakirdan/stairwalk/internal/core"
	"github.com/vovakirdan/stairwalk/internal/sim"
	"github.com/vovakirdan/stairwalk/internal/support"
)

const (
	forceScale    = 0.0025 // Meters per newton
	alarmDuration = 200 * time.Millisecond
)

// ForceDrawer draws the contact forces of the latest support distribution
// and flashes the background while no distribution exists.
type ForceDrawer struct {
	r       Renderer
	monitor *support.Monitor
	now     func() time.Time

	alarmSince time.Time
	alarm      bool
	handles    []Handle
}

// NewForceDrawer builds a drawer over monitor.
func NewForceDrawer(r Renderer, monitor *support.Monitor, now func() time.Time) *ForceDrawer {
	if now == nil {
		now = time.Now
	}
	return &ForceDrawer{r: r, monitor: monitor, now: now}
}

func (d *ForceDrawer) Tick(*sim.TickContext) error {
	d.handles = RemoveAll(d.handles)
	dist, err := d.monitor.Latest()
	switch {
	case errors.Is(err, support.ErrInfeasibleSupport):
		d.r.SetBackground(core.BackgroundAlarm)
		d.alarm, d.alarmSince = true, d.now()
		return nil
	case err != nil:
		return err
	}

	for _, c := range dist {
		origin := centerOfPressure(c)
		tip := r3.Add(origin, r3.Scale(forceScale, c.Force))
		d.handles = append(d.handles,
			d.r.Line(origin, tip, core.ColorRed),
			d.r.Point(tip, core.ColorRed))
	}
	if d.alarm && d.now().Sub(d.alarmSince) > alarmDuration {
		d.r.SetBackground(core.BackgroundNormal)
		d.alarm = false
	}
	return nil
}

// Alarm reports whether the alarm background is shown.
func (d *ForceDrawer) Alarm() bool {
	return d.alarm
}

// centerOfPressure averages the surface corners weighted by the normal
// component of their forces.
func centerOfPressure(c support.ContactForce) r3.Vec {
	n := c.Surface.Normal()
	var p r3.Vec
	total := 0.0
	for i, v := range c.Surface.Vertices() {
		w := r3.Dot(c.Vertices[i], n)
		p = r3.Add(p, r3.Scale(w, v))
		total += w
	}
	if total <= 0 {
		return c.Surface.Pos
	}
	return r3.Scale(1/total, p)
}

func forces(env Env) (sim.Process, error) {
	if env.Support == nil {
		return nil, errors.New("support monitor required")
	}
	return NewForceDrawer(env.renderer(), env.Support, env.now), nil
}
