package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/stairwalk/internal/config"
	"github.com/vovakirdan/stairwalk/internal/render"
	"github.com/vovakirdan/stairwalk/internal/robot"
)

func TestNewSchedulesPipeline(t *testing.T) {
	cfg := config.Default()
	s, err := New(cfg, WithRenderer(render.NewScreenRenderer()))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Step(context.Background(), 40))
	assert.Equal(t, uint64(40), s.Sim.Clock().Ticks)

	timings := s.Sim.Timings()
	want := append([]string{ProcessFSM, ProcessBuffer, ProcessControl, ProcessSupport, ProcessRetarget}, cfg.Extras...)
	require.Len(t, timings, len(want))
	for i, tm := range timings {
		assert.Equal(t, want[i], tm.Name)
		assert.Equal(t, uint64(40), tm.Calls, tm.Name)
		assert.Zero(t, tm.Failures, tm.Name)
	}
}

func TestNewDrawsStaircase(t *testing.T) {
	cfg := config.Default()
	cfg.Extras = nil
	sr := render.NewScreenRenderer()

	s, err := New(cfg, WithRenderer(sr))
	require.NoError(t, err)
	assert.Len(t, s.Surfaces, 26)
	assert.Equal(t, 26, sr.Len())

	screen, err := s.Screen()
	require.NoError(t, err)
	assert.Same(t, sr, screen)

	s.Close()
	assert.Zero(t, sr.Len())
}

func TestScreenWithoutScreenRenderer(t *testing.T) {
	s, err := New(config.Default())
	require.NoError(t, err)
	_, err = s.Screen()
	assert.ErrorIs(t, err, ErrNoScreen)
}

func TestNewDeterministic(t *testing.T) {
	a, err := New(config.Default())
	require.NoError(t, err)
	b, err := New(config.Default())
	require.NoError(t, err)
	assert.Equal(t, a.Surfaces, b.Surfaces)

	cfg := config.Default()
	cfg.Simulation.Seed++
	c, err := New(cfg)
	require.NoError(t, err)
	assert.NotEqual(t, a.Surfaces, c.Surfaces)
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Simulation.Dt = 0
	_, err := New(cfg)
	assert.ErrorIs(t, err, config.ErrInvalid)

	cfg = config.Default()
	cfg.Extras = []string{"no_such_drawer"}
	_, err = New(cfg)
	assert.ErrorContains(t, err, "unknown drawer")
}

func TestInitialTasks(t *testing.T) {
	s, err := New(config.Default())
	require.NoError(t, err)

	err = s.State.Do(func(l *robot.Locked) error {
		for _, name := range []string{robot.COMTaskName, robot.MinCAMTaskName, robot.LeftFootTask, robot.RightFootTask, "posture_0"} {
			_, ok := l.Task(name)
			assert.True(t, ok, name)
		}
		return nil
	})
	require.NoError(t, err)
}

func TestStartStop(t *testing.T) {
	cfg := config.Default()
	cfg.Extras = nil
	cfg.Simulation.Dt = 5 * time.Millisecond
	cfg.Simulation.KinematicsPeriod = time.Millisecond

	s, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool {
		return s.Sim.Clock().Ticks >= 5 && s.Kinematics.Solves() >= 5
	}, 2*time.Second, 5*time.Millisecond)
	s.Stop()

	ticks := s.Sim.Clock().Ticks
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, ticks, s.Sim.Clock().Ticks)
	assert.Zero(t, s.Kinematics.Failures())
}

func TestReport(t *testing.T) {
	cfg := config.Default()
	cfg.Extras = []string{"com_trail"}
	s, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, s.Step(context.Background(), 10))

	r := s.Report()
	assert.Equal(t, cfg.Simulation.Seed, r.Seed)
	assert.Equal(t, uint64(10), r.Ticks)
	assert.Equal(t, cfg.Simulation.Dt, r.Dt)
	assert.Empty(t, r.RunID)
	require.Len(t, r.Timings, 6)
	assert.Equal(t, ProcessFSM, r.Timings[0].Name)
	assert.Equal(t, "core", r.Timings[0].Group)
	assert.Equal(t, "com_trail", r.Timings[5].Name)
	assert.Equal(t, "extra", r.Timings[5].Group)
	assert.Equal(t, uint64(10), r.Timings[5].Calls)
}
