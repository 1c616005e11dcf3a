package rs232test

import (
	"github.com/sarchlab/rs232sim/dut/rs232"
	"github.com/sarchlab/rs232sim/sim/signal"
	"github.com/sarchlab/rs232sim/testbench"
)

// serialMonitor samples one frame from a bit of a signal. It waits for the
// start bit and samples every bit in the middle.
type serialMonitor struct {
	clk     *signal.Signal
	line    *signal.Signal
	bit     int
	divisor int

	data byte
	err  error
}

func (m *serialMonitor) run(tb *testbench.TB) error {
	for {
		if err := tb.Await(testbench.Edge(m.line)); err != nil {
			return err
		}

		if !m.line.Bit(m.bit) {
			break
		}
	}

	tb.Log.Printf("monitor: start bit on %s[%d]", m.line.Name(), m.bit)

	bits := make([]bool, 0, rs232.FrameBits)
	wait := m.divisor / 2
	for len(bits) < rs232.FrameBits {
		if err := tb.Await(testbench.ClockCycles(m.clk, wait)); err != nil {
			return err
		}

		bits = append(bits, m.line.Bit(m.bit))
		wait = m.divisor
	}

	m.data, m.err = rs232.DecodeFrame(bits)

	return nil
}

// serialDriver bit-bangs frames onto a bit of a signal. The other bits of the
// signal are kept.
type serialDriver struct {
	clk     *signal.Signal
	line    *signal.Signal
	bit     int
	divisor int
}

func (d *serialDriver) idle(tb *testbench.TB, cycles int) error {
	d.line.SetBit(d.bit, true)
	return tb.Await(testbench.ClockCycles(d.clk, cycles))
}

func (d *serialDriver) send(tb *testbench.TB, b byte) error {
	tb.Log.Printf("driver: sending %d on %s[%d]", b, d.line.Name(), d.bit)

	for _, level := range rs232.EncodeFrame(b) {
		d.line.SetBit(d.bit, level)

		if err := tb.Await(testbench.ClockCycles(d.clk, d.divisor)); err != nil {
			return err
		}
	}

	return nil
}
