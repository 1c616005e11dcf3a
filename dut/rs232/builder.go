package rs232

import (
	"fmt"
	"math"

	"github.com/sarchlab/rs232sim/sim"
	"github.com/sarchlab/rs232sim/sim/signal"
)

// Builder can build RS-232 transceivers.
type Builder struct {
	engine    sim.Engine
	clockFreq sim.Freq
	baudRate  float64
	divisor   int
}

// MakeBuilder creates a builder with the default parameters: a 100 KHz clock
// and 1200 baud.
func MakeBuilder() Builder {
	return Builder{
		clockFreq: 100 * sim.KHz,
		baudRate:  1200,
	}
}

// WithEngine sets the engine that timestamps the signal changes.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithClockFreq sets the frequency of the clock that drives the device.
func (b Builder) WithClockFreq(freq sim.Freq) Builder {
	b.clockFreq = freq
	return b
}

// WithBaudRate sets the line speed in bits per second.
func (b Builder) WithBaudRate(baud float64) Builder {
	b.baudRate = baud
	return b
}

// WithBaudDivisor sets the number of clock cycles per bit directly. It
// overrides the divisor derived from the clock frequency and the baud rate.
func (b Builder) WithBaudDivisor(divisor int) Builder {
	b.divisor = divisor
	return b
}

// Divisor returns the number of clock cycles per bit.
func (b Builder) Divisor() int {
	if b.divisor > 0 {
		return b.divisor
	}

	if b.baudRate <= 0 {
		return 0
	}

	return int(math.Round(float64(b.clockFreq) / b.baudRate))
}

func (b Builder) parametersMustBeValid() {
	if b.divisor == 0 && (b.clockFreq <= 0 || b.baudRate <= 0) {
		panic("clock frequency and baud rate must be positive")
	}

	if d := b.Divisor(); d < 2 {
		panic(fmt.Sprintf(
			"baud divisor %d is too small, at least 2 cycles per bit needed", d))
	}
}

// Build creates a transceiver. Its pins are named after the device.
func (b Builder) Build(name string) *Comp {
	b.parametersMustBeValid()

	c := &Comp{
		divisor: b.Divisor(),
	}
	c.ComponentBase = sim.NewComponentBase(name)
	c.pins = signal.NewBundle(name)

	var timeTeller sim.TimeTeller
	if b.engine != nil {
		timeTeller = b.engine
	}
	c.timeTeller = timeTeller

	pin := func(short string, width int) *signal.Signal {
		s := signal.New(name+"."+short, width, timeTeller)
		c.pins.Add(short, s)

		return s
	}

	c.clk = pin(PinClk, 1)
	c.rstN = pin(PinRstN, 1)
	c.ena = pin(PinEna, 1)
	c.uiIn = pin(PinUIIn, 8)
	c.uoOut = pin(PinUOOut, 8)
	c.uioIn = pin(PinUIOIn, 8)
	c.uioOut = pin(PinUIOOut, 8)
	c.uioOE = pin(PinUIOOE, 8)

	c.tx = &txMiddleware{Comp: c}
	c.rx = &rxMiddleware{Comp: c}
	c.AddMiddleware(c.tx)
	c.AddMiddleware(c.rx)

	c.clk.Watch(func(_ *signal.Signal, from, to uint64) {
		if signal.IsRising(from, to) {
			c.risingEdge()
		}
	})

	return c
}
