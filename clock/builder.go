package clock

import (
	"github.com/sarchlab/rs232sim/sim"
	"github.com/sarchlab/rs232sim/sim/signal"
)

// Builder can build clocks.
type Builder struct {
	engine    sim.Engine
	freq      sim.Freq
	startHigh bool
}

// MakeBuilder creates a builder with the default parameters: a 100 KHz clock
// that starts high.
func MakeBuilder() Builder {
	return Builder{
		freq:      100 * sim.KHz,
		startHigh: true,
	}
}

// WithEngine sets the engine that drives the clock.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the clock frequency.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithPeriod sets the clock frequency by its period.
func (b Builder) WithPeriod(period sim.VTimeInSec) Builder {
	b.freq = sim.FreqFromPeriod(period)
	return b
}

// WithStartLow makes the first half period of the clock low.
func (b Builder) WithStartLow() Builder {
	b.startHigh = false
	return b
}

// Build creates a clock that drives the given signal.
func (b Builder) Build(name string, sig *signal.Signal) *Clock {
	if b.engine == nil {
		panic("clock " + name + ": engine is not set")
	}

	if b.freq <= 0 {
		panic("clock " + name + ": frequency must be positive")
	}

	if sig == nil || sig.Width() != 1 {
		panic("clock " + name + ": must drive a 1-bit signal")
	}

	c := &Clock{
		sig:       sig,
		freq:      b.freq,
		startHigh: b.startHigh,
	}
	c.TickingComponent = sim.NewTickingComponent(name, b.engine, 2*b.freq, c)

	return c
}
