package robot_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/vovakirdan/stairwalk/internal/robot"
	"github.com/vovakirdan/stairwalk/internal/robot/robottest"
	"github.com/vovakirdan/stairwalk/internal/sim"
	"github.com/vovakirdan/stairwalk/internal/stance"
	"github.com/vovakirdan/stairwalk/internal/terrain"
)

// alternatingSource flips between double and single support every call.
type alternatingSource struct {
	mu     sync.Mutex
	calls  int
	left   terrain.Surface
	right  terrain.Surface
	target r3.Vec
}

func (a *alternatingSource) CurrentStance() stance.Stance {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	switch a.calls % 3 {
	case 0:
		return stance.Stance{Left: &a.left, Right: &a.right, Phase: stance.DoubleSupportLeft}
	case 1:
		return stance.Stance{Left: &a.left, Phase: stance.SingleSupportLeft}
	default:
		return stance.Stance{Right: &a.right, Phase: stance.SingleSupportRight}
	}
}

func (a *alternatingSource) FreeFootTarget() r3.Vec {
	return a.target
}

func newSource() *alternatingSource {
	return &alternatingSource{
		left:   terrain.Surface{HalfX: 0.1, HalfY: 0.05, Pos: r3.Vec{X: 1}},
		right:  terrain.Surface{HalfX: 0.1, HalfY: 0.05, Pos: r3.Vec{X: 1, Y: 0.3}},
		target: r3.Vec{X: 1.5, Y: 0.2, Z: 0.2},
	}
}

func TestRetargetingNeverExposesMissingFootTask(t *testing.T) {
	src := newSource()
	params := robot.DefaultParams()
	initial := src.CurrentStance()
	checker := robottest.NewCheckingSolver(robot.NewSolver(params, initial))
	state := robot.NewSharedState(checker)
	require.NoError(t, state.Do(func(l *robot.Locked) error {
		return robot.InitTasks(l, params, initial)
	}))

	thread := robot.NewKinematicsThread(state, 50*time.Microsecond)
	require.NoError(t, thread.Start(context.Background()))

	retarget := robot.NewRetargeter(state, src, params)
	s := sim.New(sim.Config{Dt: time.Millisecond})
	require.NoError(t, s.Schedule("retarget", retarget))

	deadline := time.Now().Add(300 * time.Millisecond)
	for time.Now().Before(deadline) {
		require.NoError(t, s.Step(context.Background(), 100))
	}
	require.Eventually(t, func() bool { return thread.Solves() > 0 }, 2*time.Second, time.Millisecond)
	thread.Stop()

	assert.Empty(t, checker.Violations())
	assert.Positive(t, checker.Solves())
	for _, tm := range s.Timings() {
		assert.Zero(t, tm.Failures, tm.Name)
	}
}

func TestRetargeterTaskKinds(t *testing.T) {
	src := newSource()
	params := robot.DefaultParams()
	state := robot.NewSharedState(robot.NewSolver(params, stance.Stance{}))
	r := robot.NewRetargeter(state, src, params)
	r.COM = func() r3.Vec { return r3.Vec{Z: 0.9} }
	require.NoError(t, state.Do(func(l *robot.Locked) error {
		return l.AddTask(robot.COMTask(r3.Vec{}, 1, 1))
	}))

	// calls == 1: single support on the left foot.
	require.NoError(t, r.Tick(&sim.TickContext{}))

	require.NoError(t, state.Do(func(l *robot.Locked) error {
		left, ok := l.Task(robot.LeftFootTask)
		require.True(t, ok)
		assert.Equal(t, robot.KindContact, left.Kind)
		assert.Equal(t, src.left.Pos, left.Target)

		right, ok := l.Task(robot.RightFootTask)
		require.True(t, ok)
		assert.Equal(t, robot.KindLinkPose, right.Kind)
		assert.Equal(t, src.target, right.Target)

		com, ok := l.Task(robot.COMTaskName)
		require.True(t, ok)
		assert.Equal(t, r3.Vec{Z: 0.9}, com.Target)
		return nil
	}))
}

func TestKinematicsThreadLifecycle(t *testing.T) {
	state := robot.NewSharedState(robot.NewSolver(robot.DefaultParams(), stance.Stance{}))
	thread := robot.NewKinematicsThread(state, time.Millisecond)

	thread.Stop() // not started
	require.NoError(t, thread.Start(context.Background()))
	assert.ErrorIs(t, thread.Start(context.Background()), robot.ErrThreadRunning)
	require.Eventually(t, func() bool { return thread.Solves() >= 2 }, 2*time.Second, time.Millisecond)
	thread.Stop()

	n := thread.Solves()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, n, thread.Solves())
	assert.Zero(t, thread.Failures())

	require.NoError(t, thread.Start(context.Background()))
	thread.Stop()
}

type failingSolver struct{ robot.Solver }

func (failingSolver) SolveAndApply(float64) error { return robot.ErrDiverged }

func TestKinematicsThreadCountsFailures(t *testing.T) {
	state := robot.NewSharedState(failingSolver{robot.NewSolver(robot.DefaultParams(), stance.Stance{})})
	thread := robot.NewKinematicsThread(state, time.Millisecond)
	require.NoError(t, thread.Start(context.Background()))
	require.Eventually(t, func() bool { return thread.Failures() >= 2 }, 2*time.Second, time.Millisecond)
	thread.Stop()
	assert.Zero(t, thread.Solves())
}

// footKinds returns the kinds of the installed foot tasks by name.
func footKinds(t *testing.T, state *robot.SharedState) map[string]robot.TaskKind {
	t.Helper()
	kinds := make(map[string]robot.TaskKind)
	require.NoError(t, state.Do(func(l *robot.Locked) error {
		for _, task := range l.Tasks() {
			if robot.IsFootTask(task.Name) {
				kinds[task.Name] = task.Kind
			}
		}
		return nil
	}))
	return kinds
}

func doubleSupport(src *alternatingSource) stance.Stance {
	return stance.Stance{Left: &src.left, Right: &src.right, Phase: stance.DoubleSupportLeft, COM: r3.Vec{X: 1, Y: 0.15, Z: 0.8}}
}

func TestRetargeterKeepsFootTasksOnInvalidTask(t *testing.T) {
	src := newSource()
	params := robot.DefaultParams()
	params.Gains.LinkPose = -1
	initial := doubleSupport(src)
	state := robot.NewSharedState(robot.NewSolver(params, initial))
	require.NoError(t, state.Do(func(l *robot.Locked) error {
		return robot.InitTasks(l, params, initial)
	}))

	// calls == 1: single support on the left, so the right foot swings
	// with an invalid gain.
	r := robot.NewRetargeter(state, src, params)
	err := r.Tick(&sim.TickContext{})
	require.ErrorIs(t, err, robot.ErrInvalidTask)

	assert.Equal(t, map[string]robot.TaskKind{
		robot.LeftFootTask:  robot.KindContact,
		robot.RightFootTask: robot.KindContact,
	}, footKinds(t, state))
}

// rejectingSolver refuses to add the right foot task once armed.
type rejectingSolver struct {
	robot.Solver
	armed bool
}

func (s *rejectingSolver) AddTask(task robot.Task) error {
	if s.armed && task.Name == robot.RightFootTask && task.Kind == robot.KindLinkPose {
		return robot.ErrUnknownLink
	}
	return s.Solver.AddTask(task)
}

func TestRetargeterRestoresFootTasksWhenAddFails(t *testing.T) {
	src := newSource()
	params := robot.DefaultParams()
	initial := doubleSupport(src)
	solver := &rejectingSolver{Solver: robot.NewSolver(params, initial)}
	state := robot.NewSharedState(solver)
	require.NoError(t, state.Do(func(l *robot.Locked) error {
		return robot.InitTasks(l, params, initial)
	}))
	solver.armed = true

	r := robot.NewRetargeter(state, src, params)
	require.ErrorIs(t, r.Tick(&sim.TickContext{}), robot.ErrUnknownLink)

	assert.Equal(t, map[string]robot.TaskKind{
		robot.LeftFootTask:  robot.KindContact,
		robot.RightFootTask: robot.KindContact,
	}, footKinds(t, state))
	require.NoError(t, state.Do(func(l *robot.Locked) error {
		left, ok := l.Task(robot.LeftFootTask)
		require.True(t, ok)
		assert.Equal(t, src.left.Pos, left.Target)
		return nil
	}))
}

func TestRetargeterNeedsCOMTask(t *testing.T) {
	src := newSource()
	params := robot.DefaultParams()
	state := robot.NewSharedState(robot.NewSolver(params, stance.Stance{}))
	r := robot.NewRetargeter(state, src, params)
	r.COM = func() r3.Vec { return r3.Vec{Z: 0.9} }

	assert.ErrorIs(t, r.Tick(&sim.TickContext{}), robot.ErrUnknownTask)
	assert.Empty(t, footKinds(t, state))
}
