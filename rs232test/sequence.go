package rs232test

import (
	"github.com/sarchlab/rs232sim/dut/rs232"
	"github.com/sarchlab/rs232sim/sim/signal"
	"github.com/sarchlab/rs232sim/testbench"
)

// testRS232 resets the device, sends a byte and checks the first data bit on
// TxD, then drives a byte on the bidirectional bus without checking what the
// receiver makes of it.
func (s *Suite) testRS232(tb *testbench.TB, dut *signal.Bundle) error {
	tb.Log.Print("Start RS-232 Test")

	clk := dut.MustSignal(rs232.PinClk)
	tb.StartClock(clk, s.cfg.ClockFreq())

	tb.Log.Print("Resetting the device")
	dut.MustSignal(rs232.PinRstN).Set(0)
	dut.MustSignal(rs232.PinEna).Set(0)
	dut.MustSignal(rs232.PinUIIn).Set(0)
	dut.MustSignal(rs232.PinUIOIn).Set(0)
	if err := tb.Await(testbench.ClockCycles(clk, s.cfg.ResetCycles)); err != nil {
		return err
	}
	dut.MustSignal(rs232.PinRstN).Set(1)

	tb.Log.Print("Enabling the module")
	dut.MustSignal(rs232.PinEna).Set(1)

	txData := uint64(s.cfg.TxByte)
	dut.MustSignal(rs232.PinUIIn).Set(txData)

	tb.Log.Printf("Transmitting data: %d", txData)
	if err := tb.Await(testbench.RisingEdge(clk)); err != nil {
		return err
	}

	if err := tb.Await(testbench.ClockCycles(clk, s.cfg.WaitCycles)); err != nil {
		return err
	}

	err := tb.AssertEqual("TxD",
		txData&0x01, dut.MustSignal(rs232.PinUIOOut).Value())
	if err != nil {
		return err
	}

	rxData := uint64(s.cfg.RxByte)
	dut.MustSignal(rs232.PinUIOIn).Set(rxData)

	tb.Log.Printf("Receiving data: %d", rxData)
	if err := tb.Await(testbench.ClockCycles(clk, s.cfg.WaitCycles)); err != nil {
		return err
	}

	tb.Uncheckedf("RxD expected %d, got %d",
		rxData, dut.MustSignal(rs232.PinUOOut).Value())

	tb.Log.Print("Test completed")

	return nil
}
