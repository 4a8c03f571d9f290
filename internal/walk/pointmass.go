package walk

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/vovakirdan/stairwalk/internal/sim"
)

// PointMass is the centre of mass state of the robot.
type PointMass struct {
	Pos  r3.Vec
	Vel  r3.Vec
	Mass float64
}

// Integrate applies a constant acceleration for dt seconds.
func (p *PointMass) Integrate(acc r3.Vec, dt float64) {
	p.Pos = r3.Add(p.Pos, r3.Add(r3.Scale(dt, p.Vel), r3.Scale(0.5*dt*dt, acc)))
	p.Vel = r3.Add(p.Vel, r3.Scale(dt, acc))
}

// Preview is a piecewise-constant COM acceleration plan.
type Preview struct {
	Timestep      float64  // Duration of each acceleration [s]
	Accelerations []r3.Vec // One acceleration per timestep
	SwitchStep    int      // Last step before the stance switch
}

// Empty reports whether the preview has no steps.
func (p Preview) Empty() bool {
	return len(p.Accelerations) == 0 || !(p.Timestep > 0)
}

// Trajectory integrates the preview from start and returns the positions
// reached at the end of every step.
func (p Preview) Trajectory(start PointMass) []r3.Vec {
	out := make([]r3.Vec, 0, len(p.Accelerations))
	pm := start
	for _, a := range p.Accelerations {
		pm.Integrate(a, p.Timestep)
		out = append(out, pm.Pos)
	}
	return out
}

// PreviewBuffer stores the latest controller output and feeds it to the
// centre of mass, one simulation tick at a time.
type PreviewBuffer struct {
	com     *PointMass
	preview Preview
	elapsed float64
	comdd   r3.Vec
}

// NewPreviewBuffer wraps com.
func NewPreviewBuffer(com *PointMass) *PreviewBuffer {
	return &PreviewBuffer{com: com}
}

// Update replaces the current preview.
func (b *PreviewBuffer) Update(p Preview) {
	b.preview = p
	b.elapsed = 0
	b.comdd = b.current()
}

func (b *PreviewBuffer) current() r3.Vec {
	if b.preview.Empty() {
		return r3.Vec{}
	}
	i := int(b.elapsed / b.preview.Timestep)
	if i >= len(b.preview.Accelerations) {
		i = len(b.preview.Accelerations) - 1
	}
	return b.preview.Accelerations[i]
}

// Tick integrates the centre of mass with the current acceleration.
func (b *PreviewBuffer) Tick(tc *sim.TickContext) error {
	dt := tc.DtSeconds()
	b.comdd = b.current()
	b.com.Integrate(b.comdd, dt)
	b.elapsed += dt
	return nil
}

// COM returns the centre of mass position.
func (b *PreviewBuffer) COM() r3.Vec { return b.com.Pos }

// PointMass returns a copy of the centre of mass state.
func (b *PreviewBuffer) PointMass() PointMass { return *b.com }

// TargetCOMAcceleration returns the acceleration applied on the last tick.
func (b *PreviewBuffer) TargetCOMAcceleration() r3.Vec { return b.comdd }

// Preview returns the current preview.
func (b *PreviewBuffer) Preview() Preview { return b.preview }
