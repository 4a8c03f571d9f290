// Package session assembles a complete staircase walking simulation from a
// configuration: terrain, state machine, controller, support analysis,
// robot tasks, kinematics thread, scheduler and drawers.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/stairwalk/internal/config"
	"github.com/vovakirdan/stairwalk/internal/core"
	"github.com/vovakirdan/stairwalk/internal/metrics"
	"github.com/vovakirdan/stairwalk/internal/render"
	"github.com/vovakirdan/stairwalk/internal/robot"
	"github.com/vovakirdan/stairwalk/internal/sim"
	"github.com/vovakirdan/stairwalk/internal/storage"
	"github.com/vovakirdan/stairwalk/internal/support"
	"github.com/vovakirdan/stairwalk/internal/terrain"
	"github.com/vovakirdan/stairwalk/internal/walk"
)

// Core process names, in scheduling order.
const (
	ProcessFSM      = "fsm"
	ProcessBuffer   = "preview_buffer"
	ProcessControl  = "controller"
	ProcessSupport  = "support"
	ProcessRetarget = "retarget"
)

// stairColor is used for the staircase surfaces.
const stairColor = core.ColorWhite

// Option configures a Session.
type Option func(*options)

type options struct {
	logger   *log.Logger
	metrics  *metrics.Metrics
	renderer render.Renderer
	now      func() time.Time
}

// WithLogger sets the logger shared by every component.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics records scheduler, solver and support metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithRenderer sets the renderer the drawers and the staircase draw on.
// Without one, nothing is drawn.
func WithRenderer(r render.Renderer) Option {
	return func(o *options) { o.renderer = r }
}

// WithClock sets the wall clock used by drawers for alarm timing.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Session is one simulation instance. All of its state lives here; two
// sessions share nothing.
type Session struct {
	Config     config.Config
	Surfaces   []terrain.Surface
	Sim        *sim.Simulation
	FSM        *walk.CyclicFSM
	Buffer     *walk.PreviewBuffer
	Controller *walk.TubeController
	Support    *support.Monitor
	State      *robot.SharedState
	Solver     *robot.PointSolver
	Kinematics *robot.KinematicsThread
	Renderer   render.Renderer

	logger  *log.Logger
	stairs  []render.Handle
	started bool
}

// New builds a session from cfg. The staircase is generated from
// cfg.Simulation.Seed, so equal configs give equal sessions.
func New(cfg config.Config, opts ...Option) (*Session, error) {
	o := options{logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(&o)
	}
	if o.renderer == nil {
		o.renderer = render.NopRenderer{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	surfaces, err := terrain.GenerateStaircase(cfg.Staircase, terrain.NewRand(cfg.Simulation.Seed))
	if err != nil {
		return nil, fmt.Errorf("session: staircase: %w", err)
	}

	fsm, err := walk.NewCyclicFSM(surfaces, cfg.Walking.FSM())
	if err != nil {
		return nil, fmt.Errorf("session: state machine: %w", err)
	}
	com := &walk.PointMass{Pos: fsm.InitialCOM(), Mass: cfg.Robot.Mass}
	buffer := walk.NewPreviewBuffer(com)
	controller, err := walk.NewTubeController(fsm, buffer, cfg.Control)
	if err != nil {
		return nil, fmt.Errorf("session: controller: %w", err)
	}
	monitor := support.NewMonitor(support.NewAnalyzer(cfg.Support.FrictionMargin), fsm, buffer, cfg.Robot.Mass, o.metrics)

	initial := fsm.CurrentStance()
	initial.COM = com.Pos
	solver := robot.NewSolver(cfg.Robot.Params, initial)
	state := robot.NewSharedState(solver)
	if err := state.Do(func(l *robot.Locked) error {
		return robot.InitTasks(l, cfg.Robot.Params, initial)
	}); err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	retarget := robot.NewRetargeter(state, fsm, cfg.Robot.Params)
	retarget.COM = buffer.COM

	kin := robot.NewKinematicsThread(state, cfg.Simulation.KinematicsPeriod,
		robot.WithLogger(o.logger), robot.WithMetrics(o.metrics))

	simulation := sim.New(sim.Config{Dt: cfg.Simulation.Dt, Realtime: cfg.Simulation.Realtime},
		sim.WithLogger(o.logger), sim.WithMetrics(o.metrics))

	s := &Session{
		Config:     cfg,
		Surfaces:   surfaces,
		Sim:        simulation,
		FSM:        fsm,
		Buffer:     buffer,
		Controller: controller,
		Support:    monitor,
		State:      state,
		Solver:     solver,
		Kinematics: kin,
		Renderer:   o.renderer,
		logger:     o.logger,
	}

	pipeline := []struct {
		name string
		p    sim.Process
	}{
		{ProcessFSM, fsm},
		{ProcessBuffer, buffer},
		{ProcessControl, controller},
		{ProcessSupport, monitor},
		{ProcessRetarget, retarget},
	}
	for _, c := range pipeline {
		if err := simulation.Schedule(c.name, c.p); err != nil {
			return nil, fmt.Errorf("session: %w", err)
		}
	}

	env := render.Env{
		Renderer:    o.renderer,
		FSM:         fsm,
		Buffer:      buffer,
		Controller:  controller,
		Support:     monitor,
		Logger:      o.logger,
		LegLength:   cfg.Robot.LegLength,
		FramesDir:   cfg.View.FramesDir,
		FrameWidth:  cfg.View.Width,
		FrameHeight: cfg.View.Height,
		Now:         o.now,
	}
	for _, name := range cfg.Extras {
		p, err := render.Create(name, env)
		if err != nil {
			return nil, fmt.Errorf("session: %w", err)
		}
		if err := simulation.ScheduleExtra(name, p); err != nil {
			return nil, fmt.Errorf("session: %w", err)
		}
	}

	if err := s.drawStairs(); err != nil {
		return nil, err
	}

	o.logger.Debug("session ready",
		"surfaces", len(surfaces),
		"seed", cfg.Simulation.Seed,
		"dt", cfg.Simulation.Dt,
		"extras", len(cfg.Extras))
	return s, nil
}

func (s *Session) drawStairs() error {
	for i, surface := range s.Surfaces {
		v := surface.Vertices()
		h, err := s.Renderer.Polygon(v[:], stairColor)
		if err != nil {
			return fmt.Errorf("session: draw step %d: %w", i, err)
		}
		s.stairs = append(s.stairs, h)
	}
	return nil
}

// Start launches the kinematics thread and the continuous tick loop.
func (s *Session) Start(ctx context.Context) error {
	if err := s.Kinematics.Start(ctx); err != nil {
		return err
	}
	if err := s.Sim.Start(ctx); err != nil {
		s.Kinematics.Stop()
		return err
	}
	s.started = true
	s.logger.Info("simulation started", "dt", s.Sim.Dt(), "kinematics_period", s.Config.Simulation.KinematicsPeriod)
	return nil
}

// StartKinematics launches only the kinematics thread, for callers that
// drive ticks themselves with Step.
func (s *Session) StartKinematics(ctx context.Context) error {
	return s.Kinematics.Start(ctx)
}

// Step runs n ticks on the calling goroutine.
func (s *Session) Step(ctx context.Context, n int) error {
	return s.Sim.Step(ctx, n)
}

// Stop halts the tick loop and then the kinematics thread, waiting for
// both. It is safe to call on a session that was never started.
func (s *Session) Stop() {
	s.Sim.Stop()
	s.Kinematics.Stop()
	if s.started {
		s.logger.Info("simulation stopped", "ticks", s.Sim.Clock().Ticks)
		s.started = false
	}
}

// Close stops the session and removes the staircase from the renderer.
func (s *Session) Close() {
	s.Stop()
	s.stairs = render.RemoveAll(s.stairs)
}

// Report summarizes the session so far for storage.
func (s *Session) Report() storage.Report {
	clock := s.Sim.Clock()
	r := storage.Report{
		Seed:            s.Config.Simulation.Seed,
		Ticks:           clock.Ticks,
		Dt:              clock.Dt,
		InfeasibleTicks: s.Support.Infeasible(),
		Solves:          s.Kinematics.Solves(),
	}
	for _, t := range s.Sim.Timings() {
		r.Timings = append(r.Timings, storage.ProcessTiming{
			Name:     t.Name,
			Group:    string(t.Group),
			Calls:    t.Calls,
			Failures: t.Failures,
			Average:  t.Average(),
		})
	}
	return r
}

// ErrNoScreen is returned by Screen when the session does not render to a
// terminal screen.
var ErrNoScreen = errors.New("session: renderer is not a screen renderer")

// Screen returns the terminal renderer, if the session uses one.
func (s *Session) Screen() (*render.ScreenRenderer, error) {
	sr, ok := s.Renderer.(*render.ScreenRenderer)
	if !ok {
		return nil, ErrNoScreen
	}
	return sr, nil
}
