// Package rs232test holds the tests of the RS-232 transceiver.
package rs232test

import (
	"fmt"
	"sort"

	"github.com/sarchlab/rs232sim/dut/rs232"
	"github.com/sarchlab/rs232sim/sim"
	"github.com/sarchlab/rs232sim/testbench"
)

// DeviceName is the name of the device under test. Its pins are named
// DeviceName.<pin>.
const DeviceName = "dut"

// Suite is the set of RS-232 tests with a shared config.
type Suite struct {
	cfg     Config
	divisor int
	tests   []testbench.Test
}

// NewSuite creates the tests. The config must be valid.
func NewSuite(cfg Config) *Suite {
	s := &Suite{
		cfg:     cfg,
		divisor: cfg.Divisor(),
	}

	s.tests = []testbench.Test{
		{Name: "TestRS232", Func: s.testRS232},
		{Name: "TestRS232Idle", Func: s.testIdle},
		{Name: "TestRS232TransmitFrame", Func: s.testTransmitFrame},
		{Name: "TestRS232ReceiveFrame", Func: s.testReceiveFrame},
	}

	return s
}

// Config returns the config of the suite.
func (s *Suite) Config() Config {
	return s.cfg
}

// Tests returns all the tests in the order they run.
func (s *Suite) Tests() []testbench.Test {
	return s.tests
}

// Test finds a test by name.
func (s *Suite) Test(name string) (testbench.Test, error) {
	for _, t := range s.tests {
		if t.Name == name {
			return t, nil
		}
	}

	names := make([]string, 0, len(s.tests))
	for _, t := range s.tests {
		names = append(names, t.Name)
	}
	sort.Strings(names)

	return testbench.Test{}, fmt.Errorf("no test named %q, available: %v",
		name, names)
}

// Setup builds a fresh transceiver for each test.
func (s *Suite) Setup(engine sim.Engine) (testbench.DUT, error) {
	comp := rs232.MakeBuilder().
		WithEngine(engine).
		WithClockFreq(s.cfg.ClockFreq()).
		WithBaudRate(s.cfg.BaudRate).
		Build(DeviceName)

	return testbench.DUT{
		Pins:       comp.Pins(),
		Components: []sim.Component{comp},
	}, nil
}

// Runner returns a runner builder set up for the suite.
func (s *Suite) Runner() testbench.Builder {
	return testbench.MakeBuilder().
		WithSetup(s.Setup).
		WithTimeLimit(s.cfg.TimeLimit())
}
