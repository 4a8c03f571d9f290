package robot

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrDiverged is returned when a solve produces a non-finite configuration.
var ErrDiverged = errors.New("robot: solver diverged")

// Solver is a differential inverse-kinematics solver. Implementations are
// not safe for concurrent use; SharedState serialises access.
type Solver interface {
	AddTask(t Task) error
	// RemoveTask deletes the named task and reports whether it existed.
	RemoveTask(name string) bool
	Tasks() []Task
	Task(name string) (Task, bool)
	Configuration() []float64
	SetConfiguration(q []float64) error
	// SolveAndApply integrates one solver step of dt seconds.
	SolveAndApply(dt float64) error
}

// Link is a named point of the kinematic model.
type Link struct {
	Name string
	Pos  r3.Vec
}

// PointSolver models every link as a free point and every joint as a
// scalar. Each solve moves a link toward the weighted average of its task
// targets with a first-order step of rate gain.
type PointSolver struct {
	links []Link
	index map[string]int
	dofs  []float64
	tasks []Task
}

// NewPointSolver builds a solver over links (in registration order) and
// the given initial joint values.
func NewPointSolver(links []Link, dofs []float64) *PointSolver {
	s := &PointSolver{
		links: slices.Clone(links),
		index: make(map[string]int, len(links)),
		dofs:  slices.Clone(dofs),
	}
	for i, l := range s.links {
		s.index[l.Name] = i
	}
	return s
}

// AddTask registers t. Task names are unique.
func (s *PointSolver) AddTask(t Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if _, ok := s.Task(t.Name); ok {
		return fmt.Errorf("%w: %q", ErrDuplicateTask, t.Name)
	}
	switch t.Kind {
	case KindDOF:
		if t.DOF >= len(s.dofs) {
			return fmt.Errorf("%w: %q dof %d of %d", ErrInvalidTask, t.Name, t.DOF, len(s.dofs))
		}
	case KindMinCAM:
	default:
		if _, ok := s.index[t.Link]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownLink, t.Link)
		}
	}
	s.tasks = append(s.tasks, t)
	return nil
}

func (s *PointSolver) RemoveTask(name string) bool {
	for i, t := range s.tasks {
		if t.Name == name {
			s.tasks = slices.Delete(s.tasks, i, i+1)
			return true
		}
	}
	return false
}

func (s *PointSolver) Tasks() []Task {
	return slices.Clone(s.tasks)
}

func (s *PointSolver) Task(name string) (Task, bool) {
	for _, t := range s.tasks {
		if t.Name == name {
			return t, true
		}
	}
	return Task{}, false
}

// LinkPosition returns the current position of the named link.
func (s *PointSolver) LinkPosition(name string) (r3.Vec, bool) {
	i, ok := s.index[name]
	if !ok {
		return r3.Vec{}, false
	}
	return s.links[i].Pos, true
}

// Configuration returns link coordinates (x, y, z per link, in
// registration order) followed by the joint values.
func (s *PointSolver) Configuration() []float64 {
	q := make([]float64, 0, 3*len(s.links)+len(s.dofs))
	for _, l := range s.links {
		q = append(q, l.Pos.X, l.Pos.Y, l.Pos.Z)
	}
	return append(q, s.dofs...)
}

func (s *PointSolver) SetConfiguration(q []float64) error {
	want := 3*len(s.links) + len(s.dofs)
	if len(q) != want {
		return fmt.Errorf("robot: configuration has %d values, want %d", len(q), want)
	}
	for i := range s.links {
		s.links[i].Pos = r3.Vec{X: q[3*i], Y: q[3*i+1], Z: q[3*i+2]}
	}
	copy(s.dofs, q[3*len(s.links):])
	return nil
}

func (s *PointSolver) SolveAndApply(dt float64) error {
	if !(dt > 0) {
		return fmt.Errorf("robot: invalid solver step %v", dt)
	}

	// Accumulate weighted pulls per link and per joint.
	linkPull := make([]r3.Vec, len(s.links))
	linkWeight := make([]float64, len(s.links))
	dofPull := make([]float64, len(s.dofs))
	dofWeight := make([]float64, len(s.dofs))
	for _, t := range s.tasks {
		rate := math.Min(1, t.Gain*dt)
		switch t.Kind {
		case KindMinCAM:
			continue
		case KindDOF:
			dofPull[t.DOF] += t.Weight * rate * (t.Value - s.dofs[t.DOF])
			dofWeight[t.DOF] += t.Weight
		default:
			i := s.index[t.Link]
			linkPull[i] = r3.Add(linkPull[i], r3.Scale(t.Weight*rate, r3.Sub(t.Target, s.links[i].Pos)))
			linkWeight[i] += t.Weight
		}
	}

	next := make([]r3.Vec, len(s.links))
	for i, l := range s.links {
		next[i] = l.Pos
		if linkWeight[i] > 0 {
			next[i] = r3.Add(l.Pos, r3.Scale(1/linkWeight[i], linkPull[i]))
		}
		if !finite(next[i]) {
			return fmt.Errorf("%w: link %q", ErrDiverged, l.Name)
		}
	}
	for i := range s.links {
		s.links[i].Pos = next[i]
	}
	for i := range s.dofs {
		if dofWeight[i] > 0 {
			s.dofs[i] += dofPull[i] / dofWeight[i]
		}
	}
	return nil
}

func finite(v r3.Vec) bool {
	for _, x := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
