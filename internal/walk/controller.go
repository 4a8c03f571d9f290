package walk

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/vovakirdan/stairwalk/internal/sim"
	"github.com/vovakirdan/stairwalk/internal/stance"
)

const gravity = 9.81

// Controller plans the centre of mass acceleration.
type Controller interface {
	sim.Process
	TargetCOMAcceleration() r3.Vec
	Tube() Tube
	Preview() Preview
}

// Tube is the set of COM positions (primal) and accelerations (dual) the
// controller keeps the robot in, for the current and the next stance.
type Tube struct {
	// Primal holds one polytope vertex list per stance.
	Primal [][]r3.Vec
	// Dual holds one acceleration cone per stance: the apex first, then the
	// section vertices.
	Dual        [][]r3.Vec
	StartStance stance.Stance
}

// ControlParams configures the tube controller.
type ControlParams struct {
	Kp              float64 `yaml:"kp"`
	Kd              float64 `yaml:"kd"`
	MaxAccel        float64 `yaml:"max_accel"`
	PreviewSteps    int     `yaml:"preview_steps"`
	PreviewTimestep float64 `yaml:"preview_timestep"`
	TubeRadius      float64 `yaml:"tube_radius"`
}

// DefaultControlParams returns the gains of the staircase demo.
func DefaultControlParams() ControlParams {
	return ControlParams{
		Kp:              10,
		Kd:              2 * math.Sqrt(10),
		MaxAccel:        5,
		PreviewSteps:    10,
		PreviewTimestep: 0.1,
		TubeRadius:      0.02,
	}
}

func (p ControlParams) Validate() error {
	if p.Kp < 0 || p.Kd < 0 || !(p.MaxAccel > 0) {
		return fmt.Errorf("%w: gains kp=%v kd=%v max_accel=%v", ErrInvalidParams, p.Kp, p.Kd, p.MaxAccel)
	}
	if p.PreviewSteps < 1 || !(p.PreviewTimestep > 0) {
		return fmt.Errorf("%w: preview %d x %v", ErrInvalidParams, p.PreviewSteps, p.PreviewTimestep)
	}
	if p.TubeRadius < 0 {
		return fmt.Errorf("%w: tube radius %v", ErrInvalidParams, p.TubeRadius)
	}
	return nil
}

// TubeController drives the centre of mass toward the stance targets with
// a saturated PD law and previews the result over the stance switch. During
// single support the target is the COM over the support foot.
type TubeController struct {
	fsm    StateMachine
	buffer *PreviewBuffer
	params ControlParams
	tube   Tube
}

// NewTubeController builds the controller process.
func NewTubeController(fsm StateMachine, buffer *PreviewBuffer, p ControlParams) (*TubeController, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &TubeController{fsm: fsm, buffer: buffer, params: p}, nil
}

// Tick recomputes the preview and the tube and hands the preview to the
// buffer.
func (c *TubeController) Tick(*sim.TickContext) error {
	cur, next := c.fsm.CurrentStance(), c.fsm.NextStance()
	remaining := c.fsm.PhaseRemaining()

	pm := c.buffer.PointMass()
	T := c.params.PreviewTimestep
	hold := holdTarget(cur, next)
	preview := Preview{Timestep: T, SwitchStep: -1}
	for k := 0; k < c.params.PreviewSteps; k++ {
		target := next.COM
		if float64(k)*T < remaining {
			target = hold
			preview.SwitchStep = k
		}
		a := c.law(pm, target)
		preview.Accelerations = append(preview.Accelerations, a)
		pm.Integrate(a, T)
	}
	c.buffer.Update(preview)

	c.tube = Tube{
		Primal:      [][]r3.Vec{octahedron(cur.COM, c.params.TubeRadius), octahedron(next.COM, c.params.TubeRadius)},
		Dual:        [][]r3.Vec{accelerationCone(cur), accelerationCone(next)},
		StartStance: cur,
	}
	return nil
}

// holdTarget is the COM target until the stance switch. Double support
// before single support shifts the weight over the upcoming support foot.
func holdTarget(cur, next stance.Stance) r3.Vec {
	if cur.IsDoubleSupport() && next.IsSingleSupport() {
		return next.COM
	}
	return cur.COM
}

func (c *TubeController) law(pm PointMass, target r3.Vec) r3.Vec {
	a := r3.Sub(r3.Scale(c.params.Kp, r3.Sub(target, pm.Pos)), r3.Scale(c.params.Kd, pm.Vel))
	if n := r3.Norm(a); n > c.params.MaxAccel {
		a = r3.Scale(c.params.MaxAccel/n, a)
	}
	return a
}

func (c *TubeController) TargetCOMAcceleration() r3.Vec { return c.buffer.TargetCOMAcceleration() }
func (c *TubeController) Tube() Tube                    { return c.tube }
func (c *TubeController) Preview() Preview              { return c.buffer.Preview() }

// octahedron returns the L1 ball of radius r around center, or the center
// alone when r is zero.
func octahedron(center r3.Vec, r float64) []r3.Vec {
	if r == 0 {
		return []r3.Vec{center}
	}
	return []r3.Vec{
		r3.Add(center, r3.Vec{X: r}), r3.Add(center, r3.Vec{X: -r}),
		r3.Add(center, r3.Vec{Y: r}), r3.Add(center, r3.Vec{Y: -r}),
		r3.Add(center, r3.Vec{Z: r}), r3.Add(center, r3.Vec{Z: -r}),
	}
}

// accelerationCone returns the apex (free fall) followed by the COM
// accelerations produced by a force of weight magnitude along each friction
// cone edge of every contact.
func accelerationCone(st stance.Stance) []r3.Vec {
	apex := r3.Vec{Z: -gravity}
	out := []r3.Vec{apex}
	for _, s := range st.Contacts() {
		ex, ey, n := s.Rotation()
		mu := s.Friction / math.Sqrt2
		for _, d := range [4][2]float64{{1, 1}, {-1, 1}, {-1, -1}, {1, -1}} {
			e := r3.Add(n, r3.Add(r3.Scale(d[0]*mu, ex), r3.Scale(d[1]*mu, ey)))
			out = append(out, r3.Add(apex, r3.Scale(gravity, r3.Unit(e))))
		}
	}
	return out
}
