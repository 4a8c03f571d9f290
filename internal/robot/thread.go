package robot

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/stairwalk/internal/metrics"
)

// ErrThreadRunning is returned by Start when the thread is already running.
var ErrThreadRunning = errors.New("robot: kinematics thread already running")

// ThreadOption configures a KinematicsThread.
type ThreadOption func(*KinematicsThread)

// WithLogger sets the logger used for solve failures.
func WithLogger(l *log.Logger) ThreadOption {
	return func(k *KinematicsThread) {
		if l != nil {
			k.logger = l
		}
	}
}

// WithMetrics records solve durations and failures into m.
func WithMetrics(m *metrics.Metrics) ThreadOption {
	return func(k *KinematicsThread) {
		k.metrics = m
	}
}

// KinematicsThread runs SolveAndApply on the shared state at a fixed
// period, independently of the tick loop.
type KinematicsThread struct {
	state   *SharedState
	period  time.Duration
	logger  *log.Logger
	metrics *metrics.Metrics

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	solves   atomic.Uint64
	failures atomic.Uint64
}

// NewKinematicsThread creates a stopped thread solving every period.
func NewKinematicsThread(state *SharedState, period time.Duration, opts ...ThreadOption) *KinematicsThread {
	if period <= 0 {
		period = 10 * time.Millisecond
	}
	k := &KinematicsThread{
		state:  state,
		period: period,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Start launches the solve loop. It runs until Stop or ctx cancellation.
func (k *KinematicsThread) Start(ctx context.Context) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.done != nil {
		select {
		case <-k.done:
		default:
			return ErrThreadRunning
		}
	}
	loopCtx, cancel := context.WithCancel(ctx)
	k.cancel = cancel
	k.done = make(chan struct{})
	go k.loop(loopCtx, k.done)
	return nil
}

func (k *KinematicsThread) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(k.period)
	defer ticker.Stop()

	dt := k.period.Seconds()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			k.solve(dt)
		}
	}
}

func (k *KinematicsThread) solve(dt float64) {
	start := time.Now()
	err := k.state.Do(func(l *Locked) error {
		return l.SolveAndApply(dt)
	})
	k.metrics.ObserveSolve(time.Since(start), err)
	if err != nil {
		k.failures.Add(1)
		k.logger.Warn("kinematics solve failed", "err", err)
		return
	}
	k.solves.Add(1)
}

// Stop cancels the loop and waits for an in-flight solve to finish.
func (k *KinematicsThread) Stop() {
	k.mu.Lock()
	cancel, done := k.cancel, k.done
	k.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Solves returns the number of successful solves.
func (k *KinematicsThread) Solves() uint64 {
	return k.solves.Load()
}

// Failures returns the number of failed solves.
func (k *KinematicsThread) Failures() uint64 {
	return k.failures.Load()
}
