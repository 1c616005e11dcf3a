package rs232test

import (
	"github.com/sarchlab/rs232sim/dut/rs232"
	"github.com/sarchlab/rs232sim/sim/signal"
	"github.com/sarchlab/rs232sim/testbench"
)

// reset starts the clock and holds the device in reset, then releases reset
// with the device enabled and all inputs at 0.
func (s *Suite) reset(tb *testbench.TB, dut *signal.Bundle) error {
	clk := dut.MustSignal(rs232.PinClk)
	tb.StartClock(clk, s.cfg.ClockFreq())

	dut.MustSignal(rs232.PinRstN).Set(0)
	dut.MustSignal(rs232.PinEna).Set(0)
	dut.MustSignal(rs232.PinUIIn).Set(0)
	dut.MustSignal(rs232.PinUIOIn).Set(0)
	if err := tb.Await(testbench.ClockCycles(clk, s.cfg.ResetCycles)); err != nil {
		return err
	}

	dut.MustSignal(rs232.PinRstN).Set(1)
	dut.MustSignal(rs232.PinEna).Set(1)

	return nil
}

func (s *Suite) testIdle(tb *testbench.TB, dut *signal.Bundle) error {
	if err := s.reset(tb, dut); err != nil {
		return err
	}

	clk := dut.MustSignal(rs232.PinClk)
	if err := tb.Await(testbench.ClockCycles(clk, s.cfg.WaitCycles)); err != nil {
		return err
	}

	checks := []struct {
		what string
		pin  string
		want uint64
	}{
		{"TxD", rs232.PinUIOOut, 1},
		{"uio_oe", rs232.PinUIOOE, 1 << rs232.TxDBit},
		{"uo_out", rs232.PinUOOut, 0},
	}

	for _, c := range checks {
		err := tb.AssertEqual(c.what, c.want, dut.MustSignal(c.pin).Value())
		if err != nil {
			return err
		}
	}

	tb.Log.Print("device is idle")

	return nil
}

func (s *Suite) testTransmitFrame(tb *testbench.TB, dut *signal.Bundle) error {
	if err := s.reset(tb, dut); err != nil {
		return err
	}

	m := &serialMonitor{
		clk:     dut.MustSignal(rs232.PinClk),
		line:    dut.MustSignal(rs232.PinUIOOut),
		bit:     rs232.TxDBit,
		divisor: s.divisor,
	}
	monitor := tb.StartSoon(m.run)

	dut.MustSignal(rs232.PinUIIn).Set(uint64(s.cfg.TxByte))
	tb.Log.Printf("Transmitting data: %d", s.cfg.TxByte)

	if err := tb.Await(testbench.Join(monitor)); err != nil {
		return err
	}

	if m.err != nil {
		return tb.Failf("TxD frame: %v", m.err)
	}

	tb.Log.Printf("monitor: received %d", m.data)

	return tb.AssertEqual("TxD frame", uint64(s.cfg.TxByte), uint64(m.data))
}

func (s *Suite) testReceiveFrame(tb *testbench.TB, dut *signal.Bundle) error {
	if err := s.reset(tb, dut); err != nil {
		return err
	}

	d := &serialDriver{
		clk:     dut.MustSignal(rs232.PinClk),
		line:    dut.MustSignal(rs232.PinUIOIn),
		bit:     rs232.RxDBit,
		divisor: s.divisor,
	}
	driver := tb.StartSoon(func(tb *testbench.TB) error {
		if err := d.idle(tb, s.divisor); err != nil {
			return err
		}

		return d.send(tb, s.cfg.RxByte)
	})

	tb.Log.Printf("Receiving data: %d", s.cfg.RxByte)
	if err := tb.Await(testbench.Join(driver)); err != nil {
		return err
	}

	return tb.AssertEqual("RxD",
		uint64(s.cfg.RxByte), dut.MustSignal(rs232.PinUOOut).Value())
}
