// Package sim runs the fixed-step simulation loop.
//
// A Simulation owns two ordered groups of processes. Every tick it invokes
// each core process (state machine, controller, task retargeting) and then
// each auxiliary process (drawers, diagnostics), one after another on the
// same goroutine, so auxiliary processes always observe a fully updated
// tick. A process that fails is logged and skipped for that tick only.
//
// Ticks run either synchronously through Step or continuously on a
// dedicated goroutine between Start and Stop.
package sim

import (
	"context"
	"fmt"
	"time"
)

// Process is one stage of the per-tick pipeline.
type Process interface {
	// Tick advances the process by one simulation step.
	// A returned error is isolated to this process for this tick.
	Tick(tc *TickContext) error
}

// ProcessFunc adapts a plain function to the Process interface.
type ProcessFunc func(tc *TickContext) error

// Tick calls f(tc).
func (f ProcessFunc) Tick(tc *TickContext) error {
	return f(tc)
}

// TickContext is passed to every process during a tick.
type TickContext struct {
	Ctx  context.Context
	Tick uint64        // Index of the tick being executed, starting at 0
	Time time.Duration // Simulated time at the start of the tick
	Dt   time.Duration // Fixed step duration
}

// DtSeconds returns the step duration in seconds.
func (tc *TickContext) DtSeconds() float64 {
	return tc.Dt.Seconds()
}

// Group identifies which process list a process belongs to.
type Group string

const (
	GroupCore  Group = "core"
	GroupExtra Group = "extra"
)

// ProcessError reports a failed process tick.
type ProcessError struct {
	Name  string
	Group Group
	Tick  uint64
	Err   error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("sim: process %q (%s) failed on tick %d: %v", e.Name, e.Group, e.Tick, e.Err)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}
