package robot

import (
	"errors"
	"fmt"
	"math"

	"github.com/vovakirdan/stairwalk/internal/stance"
)

// ErrInvalidParams is returned for negative or non-finite gains, weights
// or posture targets.
var ErrInvalidParams = errors.New("robot: invalid parameters")

// Gains are the task gains in 1/s.
type Gains struct {
	Contact  float64 `yaml:"contact"`
	LinkPose float64 `yaml:"link_pose"`
	COM      float64 `yaml:"com"`
	DOF      float64 `yaml:"dof"`
}

// Weights are the relative task weights.
type Weights struct {
	Contact  float64 `yaml:"contact"`
	LinkPose float64 `yaml:"link_pose"`
	COM      float64 `yaml:"com"`
	MinCAM   float64 `yaml:"min_cam"`
	DOF      float64 `yaml:"dof"`
}

// Params configures the robot model and its initial task set.
type Params struct {
	Gains   Gains     `yaml:"gains"`
	Weights Weights   `yaml:"weights"`
	Posture []float64 `yaml:"posture"`
}

// DefaultParams returns the gains and weights used by the walking demo.
// Contacts dominate swing targets, which dominate the COM and the posture.
func DefaultParams() Params {
	return Params{
		Gains:   Gains{Contact: 20, LinkPose: 20, COM: 20, DOF: 0.9},
		Weights: Weights{Contact: 10000, LinkPose: 100, COM: 10, MinCAM: 0.1, DOF: 0.05},
		Posture: []float64{0.2, 0, 0},
	}
}

// Validate checks that every gain and weight is finite and nonnegative and
// that posture targets are finite.
func (p Params) Validate() error {
	for _, v := range []struct {
		name  string
		value float64
	}{
		{"gains.contact", p.Gains.Contact},
		{"gains.link_pose", p.Gains.LinkPose},
		{"gains.com", p.Gains.COM},
		{"gains.dof", p.Gains.DOF},
		{"weights.contact", p.Weights.Contact},
		{"weights.link_pose", p.Weights.LinkPose},
		{"weights.com", p.Weights.COM},
		{"weights.min_cam", p.Weights.MinCAM},
		{"weights.dof", p.Weights.DOF},
	} {
		if !(v.value >= 0) || math.IsInf(v.value, 1) {
			return fmt.Errorf("%w: %s %v", ErrInvalidParams, v.name, v.value)
		}
	}
	for i, q := range p.Posture {
		if math.IsNaN(q) || math.IsInf(q, 0) {
			return fmt.Errorf("%w: posture[%d] %v", ErrInvalidParams, i, q)
		}
	}
	return nil
}

// NewSolver builds a PointSolver with the feet and the centre of mass
// placed on the initial stance.
func NewSolver(p Params, st stance.Stance) *PointSolver {
	left, right := st.COM, st.COM
	if st.Left != nil {
		left = st.Left.Pos
	}
	if st.Right != nil {
		right = st.Right.Pos
	}
	return NewPointSolver([]Link{
		{Name: LinkCOM, Pos: st.COM},
		{Name: LinkLeftFoot, Pos: left},
		{Name: LinkRightFoot, Pos: right},
	}, p.Posture)
}

// InitTasks installs the COM, min-CAM, posture and foot tasks for the
// initial stance.
func InitTasks(l *Locked, p Params, st stance.Stance) error {
	tasks := []Task{
		COMTask(st.COM, p.Gains.COM, p.Weights.COM),
		MinCAMTask(p.Weights.MinCAM),
	}
	for i, v := range p.Posture {
		tasks = append(tasks, DOFTask(fmt.Sprintf("posture_%d", i), i, v, p.Gains.DOF, p.Weights.DOF))
	}
	tasks = append(tasks,
		footTask(LeftFootTask, LinkLeftFoot, st.Left, st.COM, p),
		footTask(RightFootTask, LinkRightFoot, st.Right, st.COM, p),
	)
	for _, t := range tasks {
		if err := l.AddTask(t); err != nil {
			return fmt.Errorf("robot: init tasks: %w", err)
		}
	}
	return nil
}
