package sim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/stairwalk/internal/metrics"
)

var (
	// ErrBusy is returned when the process lists cannot change or a step
	// is already in flight.
	ErrBusy = errors.New("sim: scheduler busy")
	// ErrRunning is returned when the tick loop is already running.
	ErrRunning = errors.New("sim: scheduler running")
	// ErrDuplicateProcess is returned when a process name is reused.
	ErrDuplicateProcess = errors.New("sim: duplicate process name")
	// ErrProcessPanic wraps a recovered panic raised by a process.
	ErrProcessPanic = errors.New("sim: process panicked")
)

// State is the lifecycle state of a Simulation.
type State int

const (
	Idle State = iota
	Running
	Stepping
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stepping:
		return "stepping"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Config holds the scheduler timing parameters.
type Config struct {
	Dt time.Duration
	// Realtime scales wall-clock pacing of Start: 1 runs at wall-clock
	// rate, 2 twice as fast. Values <= 0 are treated as 1.
	Realtime float64
}

// Option configures a Simulation.
type Option func(*Simulation)

// WithLogger sets the logger used for process failures.
func WithLogger(l *log.Logger) Option {
	return func(s *Simulation) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records tick and process statistics into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Simulation) {
		s.metrics = m
	}
}

// OnFailure registers a hook called on the tick goroutine for every
// failed process tick.
func OnFailure(fn func(*ProcessError)) Option {
	return func(s *Simulation) {
		s.onFailure = fn
	}
}

type entry struct {
	name  string
	group Group
	proc  Process

	// guarded by Simulation.statsMu
	calls    uint64
	failures uint64
	total    time.Duration
}

// Simulation is the fixed-step tick scheduler.
type Simulation struct {
	cfg       Config
	logger    *log.Logger
	metrics   *metrics.Metrics
	onFailure func(*ProcessError)

	mu      sync.Mutex // guards state, lists, names, cancel, done
	state   State
	core    []*entry
	extra   []*entry
	names   map[string]struct{}
	cancel  context.CancelFunc
	done    chan struct{}
	statsMu sync.Mutex // guards clock and entry stats
	clock   Clock
}

// New creates an idle simulation with empty process lists.
func New(cfg Config, opts ...Option) *Simulation {
	if cfg.Dt <= 0 {
		cfg.Dt = 30 * time.Millisecond
	}
	if cfg.Realtime <= 0 {
		cfg.Realtime = 1
	}
	s := &Simulation{
		cfg:    cfg,
		logger: log.New(io.Discard),
		names:  make(map[string]struct{}),
		clock:  Clock{Dt: cfg.Dt},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dt returns the fixed step duration.
func (s *Simulation) Dt() time.Duration {
	return s.cfg.Dt
}

// State reports the current lifecycle state.
func (s *Simulation) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Schedule appends p to the core process list.
func (s *Simulation) Schedule(name string, p Process) error {
	return s.add(name, GroupCore, p)
}

// ScheduleExtra appends p to the auxiliary process list.
func (s *Simulation) ScheduleExtra(name string, p Process) error {
	return s.add(name, GroupExtra, p)
}

func (s *Simulation) add(name string, g Group, p Process) error {
	if p == nil {
		return fmt.Errorf("sim: process %q is nil", name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Idle {
		return fmt.Errorf("%w: cannot schedule %q while %s", ErrBusy, name, s.state)
	}
	if _, ok := s.names[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateProcess, name)
	}
	s.names[name] = struct{}{}
	e := &entry{name: name, group: g, proc: p}
	if g == GroupCore {
		s.core = append(s.core, e)
	} else {
		s.extra = append(s.extra, e)
	}
	return nil
}

// Step runs n ticks synchronously on the caller's goroutine.
// It returns early with ctx.Err() when ctx is cancelled between ticks.
func (s *Simulation) Step(ctx context.Context, n int) error {
	s.mu.Lock()
	switch s.state {
	case Running:
		s.mu.Unlock()
		return ErrRunning
	case Stepping:
		s.mu.Unlock()
		return ErrBusy
	}
	s.state = Stepping
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.state = Idle
		s.mu.Unlock()
	}()

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.tick(ctx)
	}
	return nil
}

// Start runs ticks on a dedicated goroutine until Stop is called or ctx
// is cancelled.
func (s *Simulation) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case Running:
		return ErrRunning
	case Stepping:
		return ErrBusy
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.state = Running

	interval := time.Duration(float64(s.cfg.Dt) / s.cfg.Realtime)
	if interval <= 0 {
		interval = time.Nanosecond
	}
	go s.loop(loopCtx, interval, done)
	return nil
}

func (s *Simulation) loop(ctx context.Context, interval time.Duration, done chan struct{}) {
	ticker := time.NewTicker(interval)
	defer func() {
		ticker.Stop()
		s.mu.Lock()
		s.state = Idle
		if s.cancel != nil {
			s.cancel()
		}
		s.cancel = nil
		s.done = nil
		s.mu.Unlock()
		close(done)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// Stop cancels the tick loop and waits until it has exited. A tick that
// has already begun completes first. Stop is a no-op when not running.
func (s *Simulation) Stop() {
	s.mu.Lock()
	if s.state != Running {
		s.mu.Unlock()
		return
	}
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done
}

// Clock returns a copy of the simulation clock.
func (s *Simulation) Clock() Clock {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.clock
}

// Timings returns per-process statistics in invocation order.
func (s *Simulation) Timings() []Timing {
	s.mu.Lock()
	entries := make([]*entry, 0, len(s.core)+len(s.extra))
	entries = append(entries, s.core...)
	entries = append(entries, s.extra...)
	s.mu.Unlock()

	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	out := make([]Timing, 0, len(entries))
	for _, e := range entries {
		out = append(out, Timing{
			Name:     e.name,
			Group:    e.group,
			Calls:    e.calls,
			Failures: e.failures,
			Total:    e.total,
		})
	}
	return out
}

// WriteTimings prints the current timings table to w.
func (s *Simulation) WriteTimings(w io.Writer) error {
	return WriteTimings(w, s.Timings())
}

// tick runs every core process, then every auxiliary process.
// Lists are immutable while not Idle, so no lock is held across calls.
func (s *Simulation) tick(ctx context.Context) {
	clock := s.Clock()
	tc := &TickContext{
		Ctx:  ctx,
		Tick: clock.Ticks,
		Time: clock.Time(),
		Dt:   clock.Dt,
	}
	for _, e := range s.core {
		s.run(e, tc)
	}
	for _, e := range s.extra {
		s.run(e, tc)
	}

	s.statsMu.Lock()
	s.clock.Ticks++
	s.statsMu.Unlock()
	s.metrics.TickDone()
}

func (s *Simulation) run(e *entry, tc *TickContext) {
	start := time.Now()
	err := safeTick(e.proc, tc)
	elapsed := time.Since(start)

	s.statsMu.Lock()
	e.calls++
	e.total += elapsed
	if err != nil {
		e.failures++
	}
	s.statsMu.Unlock()
	s.metrics.ObserveProcess(e.name, string(e.group), elapsed)

	if err == nil {
		return
	}
	perr := &ProcessError{Name: e.name, Group: e.group, Tick: tc.Tick, Err: err}
	s.logger.Warn("process failed", "process", e.name, "group", e.group, "tick", tc.Tick, "err", err)
	s.metrics.ProcessFailed(e.name, string(e.group))
	if s.onFailure != nil {
		s.onFailure(perr)
	}
}

func safeTick(p Process, tc *TickContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrProcessPanic, r)
		}
	}()
	return p.Tick(tc)
}
