package robot

import (
	"errors"
	"fmt"
	"sync"
)

// ErrLockReleased is the panic value raised when a Locked handle is used
// after its Do callback has returned.
var ErrLockReleased = errors.New("robot: locked handle used after release")

// SharedState guards the solver with a single mutex. The tick loop and the
// kinematics thread both reach the solver only through Do.
type SharedState struct {
	mu     sync.Mutex
	solver Solver
}

// NewSharedState wraps s. The caller must not use s directly afterwards.
func NewSharedState(s Solver) *SharedState {
	return &SharedState{solver: s}
}

// Do runs fn with exclusive access to the solver and returns its error.
// Every mutation made inside fn is observed atomically by other callers.
func (s *SharedState) Do(fn func(l *Locked) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := &Locked{solver: s.solver}
	defer func() { l.solver = nil }()
	return fn(l)
}

// Locked is the solver view handed to a Do callback.
type Locked struct {
	solver Solver
}

func (l *Locked) s() Solver {
	if l.solver == nil {
		panic(ErrLockReleased)
	}
	return l.solver
}

func (l *Locked) AddTask(t Task) error               { return l.s().AddTask(t) }
func (l *Locked) RemoveTask(name string) bool        { return l.s().RemoveTask(name) }
func (l *Locked) Tasks() []Task                      { return l.s().Tasks() }
func (l *Locked) Task(name string) (Task, bool)      { return l.s().Task(name) }
func (l *Locked) Configuration() []float64           { return l.s().Configuration() }
func (l *Locked) SetConfiguration(q []float64) error { return l.s().SetConfiguration(q) }
func (l *Locked) SolveAndApply(dt float64) error     { return l.s().SolveAndApply(dt) }

// ReplaceTasks swaps in tasks by name. Either every task is replaced or the
// task set is left as it was.
func (l *Locked) ReplaceTasks(tasks ...Task) error {
	s := l.s()
	for _, t := range tasks {
		if err := t.Validate(); err != nil {
			return err
		}
	}

	var old []Task
	for _, t := range tasks {
		if prev, ok := s.Task(t.Name); ok {
			old = append(old, prev)
			s.RemoveTask(t.Name)
		}
	}
	for i, t := range tasks {
		if err := s.AddTask(t); err != nil {
			for _, added := range tasks[:i] {
				s.RemoveTask(added.Name)
			}
			errs := []error{err}
			for _, prev := range old {
				if rerr := s.AddTask(prev); rerr != nil {
					errs = append(errs, fmt.Errorf("restore %q: %w", prev.Name, rerr))
				}
			}
			return errors.Join(errs...)
		}
	}
	return nil
}

// Solver returns the underlying solver, valid only inside the callback.
func (l *Locked) Solver() Solver { return l.s() }
