// Package robottest provides solver wrappers for concurrency tests.
package robottest

import (
	"sync"

	"github.com/vovakirdan/stairwalk/internal/robot"
)

// CheckingSolver wraps a Solver and records every solve that observes
// fewer than two foot tasks.
type CheckingSolver struct {
	robot.Solver

	mu         sync.Mutex
	solves     int
	violations []int
}

// NewCheckingSolver wraps s.
func NewCheckingSolver(s robot.Solver) *CheckingSolver {
	return &CheckingSolver{Solver: s}
}

func (c *CheckingSolver) SolveAndApply(dt float64) error {
	feet := 0
	for _, t := range c.Solver.Tasks() {
		if robot.IsFootTask(t.Name) {
			feet++
		}
	}

	c.mu.Lock()
	if feet < 2 {
		c.violations = append(c.violations, c.solves)
	}
	c.solves++
	c.mu.Unlock()

	return c.Solver.SolveAndApply(dt)
}

// Solves returns the number of solves observed.
func (c *CheckingSolver) Solves() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.solves
}

// Violations returns the indices of solves that saw a foot task missing.
func (c *CheckingSolver) Violations() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int(nil), c.violations...)
}
