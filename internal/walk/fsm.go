// Package walk sequences footsteps over the staircase and plans the centre
// of mass motion between them.
package walk

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/vovakirdan/stairwalk/internal/sim"
	"github.com/vovakirdan/stairwalk/internal/stance"
	"github.com/vovakirdan/stairwalk/internal/terrain"
)

// ErrInvalidParams is returned for unusable walking parameters.
var ErrInvalidParams = errors.New("walk: invalid parameters")

// StateMachine sequences the stances of the walk.
type StateMachine interface {
	sim.Process
	CurrentStance() stance.Stance
	NextStance() stance.Stance
	CurrentPhase() stance.Phase
	// FreeFootTarget is the current target of the swinging foot.
	FreeFootTarget() r3.Vec
	// PhaseRemaining returns the time left in the current phase, in seconds.
	PhaseRemaining() float64
}

// FSMParams configures the cyclic footstep state machine.
type FSMParams struct {
	SSDuration  float64 `yaml:"ss_duration"`  // Single-support duration [s]
	DSDuration  float64 `yaml:"ds_duration"`  // Double-support duration [s]
	COMHeight   float64 `yaml:"com_height"`   // COM target above the contacts [m]
	SwingHeight float64 `yaml:"swing_height"` // Apex of the swing foot [m]
	InitPhase   string  `yaml:"init_phase"`   // "DS-L" or "DS-R"
	InitOffset  r3.Vec  `yaml:"-"`
	Cyclic      bool    `yaml:"cyclic"`
}

// DefaultFSMParams returns the durations of the staircase demo.
func DefaultFSMParams() FSMParams {
	return FSMParams{
		SSDuration:  1.0,
		DSDuration:  0.5,
		COMHeight:   0.8,
		SwingHeight: 0.15,
		InitPhase:   string(stance.DoubleSupportRight),
		InitOffset:  r3.Vec{X: 0.05},
		Cyclic:      true,
	}
}

// Validate checks durations and the initial phase.
func (p FSMParams) Validate() error {
	if !(p.SSDuration > 0) || !(p.DSDuration > 0) {
		return fmt.Errorf("%w: phase durations %v/%v", ErrInvalidParams, p.SSDuration, p.DSDuration)
	}
	if !(p.COMHeight > 0) {
		return fmt.Errorf("%w: com height %v", ErrInvalidParams, p.COMHeight)
	}
	switch stance.Phase(p.InitPhase) {
	case stance.DoubleSupportLeft, stance.DoubleSupportRight:
	default:
		return fmt.Errorf("%w: initial phase %q", ErrInvalidParams, p.InitPhase)
	}
	return nil
}

// CyclicFSM walks over a footstep sequence where even surfaces belong to
// the left foot and odd ones to the right foot. Each footstep i yields a
// double-support stance on surfaces i and i+1 followed by a single-support
// stance on surface i+1.
type CyclicFSM struct {
	params   FSMParams
	surfaces []terrain.Surface

	step    int     // Index of the older contact of the current double support
	single  bool    // In the single-support half of the step
	elapsed float64 // Time spent in the current phase [s]
	done    bool    // Non-cyclic walk reached its last stance
}

// NewCyclicFSM builds the state machine over surfaces.
func NewCyclicFSM(surfaces []terrain.Surface, p FSMParams) (*CyclicFSM, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(surfaces) < 3 {
		return nil, fmt.Errorf("%w: need at least 3 surfaces, got %d", ErrInvalidParams, len(surfaces))
	}
	if p.Cyclic && len(surfaces)%2 != 0 {
		return nil, fmt.Errorf("%w: cyclic walk needs an even surface count, got %d", ErrInvalidParams, len(surfaces))
	}
	f := &CyclicFSM{params: p, surfaces: surfaces}
	// Double support on (0, 1) ends on the right foot.
	if stance.Phase(p.InitPhase) == stance.DoubleSupportLeft {
		f.step = 1
	}
	return f, nil
}

func (f *CyclicFSM) index(i int) int {
	n := len(f.surfaces)
	if f.params.Cyclic {
		return ((i % n) + n) % n
	}
	return min(i, n-1)
}

func (f *CyclicFSM) surface(i int) *terrain.Surface {
	return &f.surfaces[f.index(i)]
}

func isLeft(i int) bool { return i%2 == 0 }

// stanceAt builds the stance of step i, double or single support.
func (f *CyclicFSM) stanceAt(i int, single bool) stance.Stance {
	older, newer := f.surface(i), f.surface(i+1)
	newerLeft := isLeft(f.index(i + 1))
	var st stance.Stance
	up := r3.Vec{Z: f.params.COMHeight}
	if single {
		if newerLeft {
			st.Left, st.Phase = newer, stance.SingleSupportLeft
		} else {
			st.Right, st.Phase = newer, stance.SingleSupportRight
		}
		st.COM = r3.Add(newer.Pos, up)
		return st
	}
	if newerLeft {
		st.Left, st.Right, st.Phase = newer, older, stance.DoubleSupportLeft
	} else {
		st.Left, st.Right, st.Phase = older, newer, stance.DoubleSupportRight
	}
	st.COM = r3.Add(r3.Scale(0.5, r3.Add(older.Pos, newer.Pos)), up)
	return st
}

func (f *CyclicFSM) CurrentStance() stance.Stance {
	return f.stanceAt(f.step, f.single)
}

func (f *CyclicFSM) NextStance() stance.Stance {
	if f.done {
		return f.CurrentStance()
	}
	if f.single {
		if f.last() {
			return f.stanceAt(f.step, false)
		}
		return f.stanceAt(f.step+1, false)
	}
	return f.stanceAt(f.step, true)
}

func (f *CyclicFSM) CurrentPhase() stance.Phase {
	return f.CurrentStance().Phase
}

// InitialCOM returns the starting centre of mass position.
func (f *CyclicFSM) InitialCOM() r3.Vec {
	return r3.Add(f.stanceAt(f.step, false).COM, f.params.InitOffset)
}

func (f *CyclicFSM) duration() float64 {
	if f.single {
		return f.params.SSDuration
	}
	return f.params.DSDuration
}

func (f *CyclicFSM) PhaseRemaining() float64 {
	if f.done {
		return math.Inf(1)
	}
	return math.Max(0, f.duration()-f.elapsed)
}

// FreeFootTarget interpolates the swing foot from its previous surface to
// the next one during single support, with a sinusoidal apex. In double
// support it is the next landing surface.
func (f *CyclicFSM) FreeFootTarget() r3.Vec {
	from, to := f.surface(f.step).Pos, f.surface(f.step+2).Pos
	if !f.single {
		return to
	}
	s := math.Min(1, f.elapsed/f.params.SSDuration)
	p := r3.Add(from, r3.Scale(s, r3.Sub(to, from)))
	p.Z += f.params.SwingHeight * math.Sin(math.Pi*s)
	return p
}

// Tick advances the phase clock and switches stances on phase ends.
func (f *CyclicFSM) Tick(tc *sim.TickContext) error {
	if f.done {
		return nil
	}
	f.elapsed += tc.DtSeconds()
	for !f.done && f.elapsed >= f.duration() {
		f.elapsed -= f.duration()
		f.advance()
	}
	return nil
}

// last reports whether a non-cyclic walk is on its final footstep.
func (f *CyclicFSM) last() bool {
	return !f.params.Cyclic && f.step+2 >= len(f.surfaces)
}

func (f *CyclicFSM) advance() {
	if !f.single {
		f.single = true
		return
	}
	if f.last() {
		f.done = true
		f.single = false
		f.elapsed = 0
		return
	}
	f.single = false
	f.step++
	if f.params.Cyclic {
		f.step = f.index(f.step)
	}
}
