package sim

import (
	"fmt"
	"io"
	"time"
)

// Timing aggregates the computation time of one process.
type Timing struct {
	Name     string
	Group    Group
	Calls    uint64
	Failures uint64
	Total    time.Duration
}

// Average returns the mean wall-clock time per call.
func (t Timing) Average() time.Duration {
	if t.Calls == 0 {
		return 0
	}
	return t.Total / time.Duration(t.Calls)
}

// WriteTimings prints averaged computation times, one line per process.
func WriteTimings(w io.Writer, timings []Timing) error {
	if _, err := fmt.Fprintf(w, "  %-20s  %-5s  %8s  %8s  %12s\n", "Process", "Group", "Calls", "Failures", "Average"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "  %-20s  %-5s  %8s  %8s  %12s\n", "-------", "-----", "-----", "--------", "-------"); err != nil {
		return err
	}
	for _, t := range timings {
		if _, err := fmt.Fprintf(w, "  %-20s  %-5s  %8d  %8d  %12s\n",
			t.Name, t.Group, t.Calls, t.Failures, t.Average()); err != nil {
			return err
		}
	}
	return nil
}
