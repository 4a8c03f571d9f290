package robot

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/vovakirdan/stairwalk/internal/sim"
	"github.com/vovakirdan/stairwalk/internal/stance"
	"github.com/vovakirdan/stairwalk/internal/terrain"
)

// StanceSource provides the contact state the foot tasks follow.
type StanceSource interface {
	CurrentStance() stance.Stance
	FreeFootTarget() r3.Vec
}

// Retargeter rewrites the foot tasks each tick from the walking state.
type Retargeter struct {
	state  *SharedState
	source StanceSource
	params Params

	// COM, when set, supplies the centre of mass target for the COM task.
	COM func() r3.Vec
}

// NewRetargeter builds the foot-task process.
func NewRetargeter(state *SharedState, source StanceSource, p Params) *Retargeter {
	return &Retargeter{state: state, source: source, params: p}
}

// Tick replaces both foot tasks and the COM target inside a single critical
// section. On error the previous tasks stay in place, so the kinematics
// thread never solves with a foot task missing.
func (r *Retargeter) Tick(*sim.TickContext) error {
	st := r.source.CurrentStance()
	free := r.source.FreeFootTarget()
	left := footTask(LeftFootTask, LinkLeftFoot, st.Left, free, r.params)
	right := footTask(RightFootTask, LinkRightFoot, st.Right, free, r.params)

	var com *r3.Vec
	if r.COM != nil {
		c := r.COM()
		com = &c
	}

	return r.state.Do(func(l *Locked) error {
		tasks := []Task{left, right}
		if com != nil {
			t, ok := l.Task(COMTaskName)
			if !ok {
				return fmt.Errorf("robot: retarget com: %w: %q", ErrUnknownTask, COMTaskName)
			}
			t.Target = *com
			tasks = append(tasks, t)
		}
		if err := l.ReplaceTasks(tasks...); err != nil {
			return fmt.Errorf("robot: retarget: %w", err)
		}
		return nil
	})
}

// footTask returns a contact task for a supporting foot and a link-pose
// task toward free for a swinging one.
func footTask(name, link string, s *terrain.Surface, free r3.Vec, p Params) Task {
	if s != nil {
		return ContactTask(name, link, *s, p.Gains.Contact, p.Weights.Contact)
	}
	return LinkPoseTask(name, link, free, p.Gains.LinkPose, p.Weights.LinkPose)
}
