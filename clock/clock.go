// Package clock provides a clock generator that toggles a signal at a fixed
// frequency.
package clock

import (
	"github.com/sarchlab/rs232sim/sim"
	"github.com/sarchlab/rs232sim/sim/signal"
)

// A Clock toggles a 1-bit signal every half period. It ticks at twice the
// clock frequency, so all the toggle times are derived from the tick count
// and do not drift.
type Clock struct {
	*sim.TickingComponent

	sig       *signal.Signal
	freq      sim.Freq
	startHigh bool

	running bool
	toggles uint64
	edges   uint64
}

// Signal returns the driven signal.
func (c *Clock) Signal() *signal.Signal {
	return c.sig
}

// Freq returns the clock frequency.
func (c *Clock) Freq() sim.Freq {
	return c.freq
}

// Period returns the clock period.
func (c *Clock) Period() sim.VTimeInSec {
	return c.freq.Period()
}

// IsRunning tells if the clock is toggling.
func (c *Clock) IsRunning() bool {
	return c.running
}

// RisingEdges returns the number of rising edges generated so far.
func (c *Clock) RisingEdges() uint64 {
	return c.edges
}

// Start starts toggling at the current time. The first toggle drives the
// starting level.
func (c *Clock) Start() {
	if c.running {
		return
	}

	c.running = true
	c.TickNow()
}

// Stop stops toggling. The signal keeps its current level.
func (c *Clock) Stop() {
	c.running = false
}

// Tick drives the next level of the clock.
func (c *Clock) Tick() bool {
	if !c.running {
		return false
	}

	high := c.toggles%2 == 0
	if !c.startHigh {
		high = !high
	}
	c.toggles++

	var level uint64
	if high {
		level = 1
	}

	before := c.sig.Value()
	c.sig.Set(level)
	if signal.IsRising(before, level) {
		c.edges++
	}

	return true
}
