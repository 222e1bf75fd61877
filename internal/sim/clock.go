// Package sim provides simulated collaborators for bench flights: a
// supercapacitor energy model driven by a day/night solar profile, a
// scripted GNSS receiver, a lossy radio, and a wake timer that can
// inject a freefall interrupt. It lets multi-day flights of the
// control loop run in milliseconds.
package sim

import (
	"sync"
	"time"
)

// Clock is the simulated time source. The wake source advances it;
// everything else only reads it.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts a clock at the given instant.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current simulated time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
