// Package metrics exposes Prometheus instrumentation for the simulation:
// per-process tick durations and failures, kinematics solve timings and the
// number of ticks without a feasible support force distribution.
//
// All methods are safe on a nil *Metrics so components can be built without
// instrumentation.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors registered for one simulation session.
type Metrics struct {
	gatherer prometheus.Gatherer

	processDuration   *prometheus.HistogramVec
	processFailures   *prometheus.CounterVec
	ticks             prometheus.Counter
	infeasibleSupport prometheus.Counter
	solveDuration     prometheus.Histogram
	solveFailures     prometheus.Counter
}

// New registers the simulation collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	return NewWith(reg, reg)
}

// NewWith registers the simulation collectors on reg and serves them from g.
func NewWith(reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		gatherer: g,
		processDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stairwalk_process_tick_duration_seconds",
			Help:    "Wall-clock time spent in one process per tick",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1},
		}, []string{"process", "group"}),
		processFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "stairwalk_process_failures_total",
			Help: "Process ticks that returned an error or panicked",
		}, []string{"process", "group"}),
		ticks: f.NewCounter(prometheus.CounterOpts{
			Name: "stairwalk_ticks_total",
			Help: "Completed simulation ticks",
		}),
		infeasibleSupport: f.NewCounter(prometheus.CounterOpts{
			Name: "stairwalk_infeasible_support_total",
			Help: "Ticks where no contact force distribution supports the robot",
		}),
		solveDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "stairwalk_kinematics_solve_duration_seconds",
			Help:    "Time spent in one kinematics solve, lock held",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1},
		}),
		solveFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "stairwalk_kinematics_solve_failures_total",
			Help: "Kinematics solves that returned an error",
		}),
	}
}

// ObserveProcess records one process tick.
func (m *Metrics) ObserveProcess(process, group string, d time.Duration) {
	if m == nil {
		return
	}
	m.processDuration.WithLabelValues(process, group).Observe(d.Seconds())
}

// ProcessFailed counts a failed process tick.
func (m *Metrics) ProcessFailed(process, group string) {
	if m == nil {
		return
	}
	m.processFailures.WithLabelValues(process, group).Inc()
}

// TickDone counts a completed tick.
func (m *Metrics) TickDone() {
	if m == nil {
		return
	}
	m.ticks.Inc()
}

// InfeasibleSupport counts a tick without a supporting force distribution.
func (m *Metrics) InfeasibleSupport() {
	if m == nil {
		return
	}
	m.infeasibleSupport.Inc()
}

// ObserveSolve records one kinematics solve.
func (m *Metrics) ObserveSolve(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.solveDuration.Observe(d.Seconds())
	if err != nil {
		m.solveFailures.Inc()
	}
}

// Handler serves the registered collectors in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
