package sim

import "time"

// Clock counts simulation ticks of a fixed duration.
type Clock struct {
	Ticks uint64
	Dt    time.Duration
}

// Time returns the simulated time elapsed since the first tick.
func (c Clock) Time() time.Duration {
	return time.Duration(c.Ticks) * c.Dt
}

// Seconds returns Time in seconds.
func (c Clock) Seconds() float64 {
	return c.Time().Seconds()
}
