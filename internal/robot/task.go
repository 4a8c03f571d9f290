// Package robot holds the kinematic model of the walking robot: its task
// set, the solver that moves the joint configuration toward those tasks and
// the lock that the tick loop and the kinematics thread share.
package robot

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/vovakirdan/stairwalk/internal/terrain"
)

// Task and link names used by the walking pipeline.
const (
	LeftFootTask   = "left_foot"
	RightFootTask  = "right_foot"
	COMTaskName    = "com"
	MinCAMTaskName = "min_cam"

	LinkLeftFoot  = "left_foot"
	LinkRightFoot = "right_foot"
	LinkCOM       = "com"
)

var (
	ErrDuplicateTask = errors.New("robot: duplicate task")
	ErrUnknownTask   = errors.New("robot: unknown task")
	ErrUnknownLink   = errors.New("robot: unknown link")
	ErrInvalidTask   = errors.New("robot: invalid task")
)

// TaskKind selects how a solver interprets a task.
type TaskKind string

const (
	KindContact  TaskKind = "contact"
	KindLinkPose TaskKind = "link_pose"
	KindDOF      TaskKind = "dof"
	KindCOM      TaskKind = "com"
	KindMinCAM   TaskKind = "min_cam"
)

// Task is one objective of the kinematics solver.
type Task struct {
	Name   string
	Kind   TaskKind
	Link   string  // Empty for DOF and min-CAM tasks
	Target r3.Vec  // Link target in world frame
	DOF    int     // Joint index for DOF tasks
	Value  float64 // Joint target for DOF tasks
	Gain   float64
	Weight float64

	// Surface is the contact surface of a contact task.
	Surface *terrain.Surface
}

// Validate checks gains, weights and kind-specific fields.
func (t Task) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidTask)
	}
	if !(t.Gain >= 0) || math.IsInf(t.Gain, 0) {
		return fmt.Errorf("%w: %q gain %v", ErrInvalidTask, t.Name, t.Gain)
	}
	if !(t.Weight >= 0) || math.IsInf(t.Weight, 0) {
		return fmt.Errorf("%w: %q weight %v", ErrInvalidTask, t.Name, t.Weight)
	}
	switch t.Kind {
	case KindContact:
		if t.Surface == nil {
			return fmt.Errorf("%w: contact task %q without surface", ErrInvalidTask, t.Name)
		}
		fallthrough
	case KindLinkPose, KindCOM:
		if t.Link == "" {
			return fmt.Errorf("%w: %q has no link", ErrInvalidTask, t.Name)
		}
	case KindDOF:
		if t.DOF < 0 {
			return fmt.Errorf("%w: %q dof index %d", ErrInvalidTask, t.Name, t.DOF)
		}
	case KindMinCAM:
	default:
		return fmt.Errorf("%w: %q kind %q", ErrInvalidTask, t.Name, t.Kind)
	}
	return nil
}

// ContactTask keeps link on surface s.
func ContactTask(name, link string, s terrain.Surface, gain, weight float64) Task {
	return Task{
		Name:    name,
		Kind:    KindContact,
		Link:    link,
		Target:  s.Pos,
		Gain:    gain,
		Weight:  weight,
		Surface: &s,
	}
}

// LinkPoseTask drives link toward target.
func LinkPoseTask(name, link string, target r3.Vec, gain, weight float64) Task {
	return Task{Name: name, Kind: KindLinkPose, Link: link, Target: target, Gain: gain, Weight: weight}
}

// COMTask drives the centre of mass toward target.
func COMTask(target r3.Vec, gain, weight float64) Task {
	return Task{Name: COMTaskName, Kind: KindCOM, Link: LinkCOM, Target: target, Gain: gain, Weight: weight}
}

// MinCAMTask regularises the centroidal angular momentum.
func MinCAMTask(weight float64) Task {
	return Task{Name: MinCAMTaskName, Kind: KindMinCAM, Weight: weight}
}

// DOFTask holds joint dof at value.
func DOFTask(name string, dof int, value, gain, weight float64) Task {
	return Task{Name: name, Kind: KindDOF, DOF: dof, Value: value, Gain: gain, Weight: weight}
}

// IsFootTask reports whether name is one of the two foot tasks.
func IsFootTask(name string) bool {
	return name == LeftFootTask || name == RightFootTask
}
