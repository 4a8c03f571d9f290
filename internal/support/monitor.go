package support

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/vovakirdan/stairwalk/internal/metrics"
	"github.com/vovakirdan/stairwalk/internal/sim"
	"github.com/vovakirdan/stairwalk/internal/stance"
)

// StanceSource provides the current contact configuration.
type StanceSource interface {
	CurrentStance() stance.Stance
}

// COMState provides the centre of mass and its commanded acceleration.
type COMState interface {
	COM() r3.Vec
	TargetCOMAcceleration() r3.Vec
}

// Monitor is a tick process that recomputes the force distribution of the
// current stance. Infeasibility is recorded, not returned: it is a signal
// for the drawers, not a process failure.
type Monitor struct {
	analyzer *Analyzer
	stances  StanceSource
	com      COMState
	mass     float64
	metrics  *metrics.Metrics

	latest     Distribution
	latestErr  error
	infeasible uint64
}

// NewMonitor builds the support process. m may be nil.
func NewMonitor(a *Analyzer, stances StanceSource, com COMState, mass float64, m *metrics.Metrics) *Monitor {
	return &Monitor{
		analyzer:  a,
		stances:   stances,
		com:       com,
		mass:      mass,
		metrics:   m,
		latestErr: ErrInfeasibleSupport,
	}
}

// Tick replaces the previous distribution. A double-support stance with no
// contacts counts as infeasible; other malformed stances fail the tick.
func (m *Monitor) Tick(*sim.TickContext) error {
	m.latest = nil
	st := m.stances.CurrentStance()
	if st.IsDoubleSupport() && len(st.Contacts()) == 0 {
		m.latestErr = fmt.Errorf("%w: no contacts", ErrInfeasibleSupport)
		m.recordInfeasible()
		return nil
	}
	if err := st.Validate(); err != nil {
		m.latestErr = fmt.Errorf("%w: %v", ErrInfeasibleSupport, err)
		return err
	}
	dist, err := m.analyzer.FindForAcceleration(m.com.TargetCOMAcceleration(), st, m.com.COM(), m.mass)
	m.latest, m.latestErr = dist, err
	if errors.Is(err, ErrInfeasibleSupport) {
		m.recordInfeasible()
		return nil
	}
	return err
}

func (m *Monitor) recordInfeasible() {
	m.infeasible++
	m.metrics.InfeasibleSupport()
}

// Latest returns the distribution computed on the last tick.
func (m *Monitor) Latest() (Distribution, error) {
	return m.latest, m.latestErr
}

// Infeasible returns the number of ticks without a feasible distribution.
func (m *Monitor) Infeasible() uint64 {
	return m.infeasible
}
