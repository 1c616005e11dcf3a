// Package testbench runs coroutine-style hardware tests on top of the
// discrete-event engine.
//
// A test is a plain Go function that receives a *TB and the pins of the
// device under test. It drives pins with Signal.Set and waits for simulated
// time to pass with TB.Await:
//
//	func TestReset(tb *testbench.TB, dut *signal.Bundle) error {
//		tb.StartClock(dut.MustSignal("clk"), 100*sim.KHz)
//		dut.MustSignal("rst_n").Set(0)
//		if err := tb.Await(testbench.ClockCycles(dut.MustSignal("clk"), 10)); err != nil {
//			return err
//		}
//		dut.MustSignal("rst_n").Set(1)
//		return nil
//	}
//
// Every test and every task started with TB.StartSoon runs on its own
// goroutine, but only one of them, or the engine, runs at any moment. Control
// passes at Await and when a task returns, so tests need no locking.
package testbench
