// Package rs232 models an RS-232 transceiver with the pinout of a
// TinyTapeout user project. The transmitter drives TxD on uio_out[0] and the
// receiver listens to RxD on uio_in[1].
package rs232

import (
	"fmt"

	"github.com/sarchlab/rs232sim/sim"
	"github.com/sarchlab/rs232sim/sim/signal"
)

// Pin names.
const (
	PinClk    = "clk"
	PinRstN   = "rst_n"
	PinEna    = "ena"
	PinUIIn   = "ui_in"
	PinUOOut  = "uo_out"
	PinUIOIn  = "uio_in"
	PinUIOOut = "uio_out"
	PinUIOOE  = "uio_oe"
)

// Bit positions on the bidirectional bus.
const (
	TxDBit = 0
	RxDBit = 1
)

// Hook positions for frame events. The Detail of the hook context is a
// FrameInfo.
var (
	HookPosTxStart      = &sim.HookPos{Name: "RS232 Tx Start"}
	HookPosTxDone       = &sim.HookPos{Name: "RS232 Tx Done"}
	HookPosRxDone       = &sim.HookPos{Name: "RS232 Rx Done"}
	HookPosRxFrameError = &sim.HookPos{Name: "RS232 Rx Frame Error"}
)

// FrameInfo describes a frame that is sent or received.
type FrameInfo struct {
	Time sim.VTimeInSec
	Data byte
}

type inputs struct {
	rstN  bool
	ena   bool
	uiIn  byte
	uioIn byte
}

// Comp is the RS-232 transceiver. All the state updates happen on rising
// edges of clk, based on the inputs as they were before the edge.
type Comp struct {
	*sim.ComponentBase
	sim.MiddlewareHolder

	timeTeller sim.TimeTeller
	pins       *signal.Bundle

	clk, rstN, ena       *signal.Signal
	uiIn, uoOut          *signal.Signal
	uioIn, uioOut, uioOE *signal.Signal

	divisor int
	sampled inputs
	tx      *txMiddleware
	rx      *rxMiddleware

	edges         uint64
	framesSent    uint64
	framesRecvd   uint64
	framingErrors uint64
}

// Handle rejects all events. The transceiver is driven by its clock pin.
func (c *Comp) Handle(e sim.Event) error {
	return fmt.Errorf("%s: cannot handle event of type %T", c.Name(), e)
}

// Pins returns the pins of the device.
func (c *Comp) Pins() *signal.Bundle {
	return c.pins
}

// Divisor returns the number of clock cycles per bit.
func (c *Comp) Divisor() int {
	return c.divisor
}

// Edges returns the number of rising clock edges seen.
func (c *Comp) Edges() uint64 {
	return c.edges
}

// FramesSent returns the number of frames transmitted completely.
func (c *Comp) FramesSent() uint64 {
	return c.framesSent
}

// FramesReceived returns the number of frames received with a valid stop bit.
func (c *Comp) FramesReceived() uint64 {
	return c.framesRecvd
}

// FramingErrors returns the number of frames received with a low stop bit.
func (c *Comp) FramingErrors() uint64 {
	return c.framingErrors
}

// TxBusy tells if the transmitter is sending a frame.
func (c *Comp) TxBusy() bool {
	return c.tx.state != txIdle
}

// RxBusy tells if the receiver is receiving a frame.
func (c *Comp) RxBusy() bool {
	return c.rx.state != rxIdle
}

func (c *Comp) risingEdge() {
	c.edges++
	c.sample()

	if !c.sampled.rstN {
		c.reset()
		return
	}

	if !c.sampled.ena {
		return
	}

	c.Tick()
}

func (c *Comp) sample() {
	c.sampled = inputs{
		rstN:  c.rstN.Value() != 0,
		ena:   c.ena.Value() != 0,
		uiIn:  byte(c.uiIn.Value()),
		uioIn: byte(c.uioIn.Value()),
	}
}

func (c *Comp) reset() {
	c.tx.reset()
	c.rx.reset()

	c.uoOut.Set(0)
	c.uioOE.Set(1 << TxDBit)
}

func (c *Comp) frameEvent(pos *sim.HookPos, data byte) {
	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    pos,
		Item:   c,
		Detail: FrameInfo{Time: c.now(), Data: data},
	})
}

func (c *Comp) now() sim.VTimeInSec {
	if c.timeTeller == nil {
		return 0
	}

	return c.timeTeller.CurrentTime()
}
