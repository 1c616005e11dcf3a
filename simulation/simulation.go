// Package simulation runs a suite of tests with the optional services around
// them: recording and monitoring.
package simulation

import (
	"context"

	"github.com/sarchlab/rs232sim/datarecording"
	"github.com/sarchlab/rs232sim/monitoring"
	"github.com/sarchlab/rs232sim/rs232test"
	"github.com/sarchlab/rs232sim/testbench"
)

// Suite is a set of tests that share a device setup.
type Suite interface {
	Config() rs232test.Config
	Tests() []testbench.Test
	Test(name string) (testbench.Test, error)
	Runner() testbench.Builder
}

// A Simulation runs the tests of a suite.
type Simulation struct {
	id    string
	suite Suite

	runner       *testbench.Runner
	dataRecorder datarecording.DataRecorder
	monitor      *monitoring.Monitor
	monitorURL   string
}

// ID returns the unique ID of the simulation.
func (s *Simulation) ID() string {
	return s.id
}

// GetDataRecorder returns the data recorder, or nil if recording is off.
func (s *Simulation) GetDataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// GetMonitor returns the monitor, or nil if monitoring is off.
func (s *Simulation) GetMonitor() *monitoring.Monitor {
	return s.monitor
}

// MonitorURL returns the address of the monitoring server.
func (s *Simulation) MonitorURL() string {
	return s.monitorURL
}

// Run runs the named tests in order, or all the tests if no name is given.
// It stops early if ctx is done.
func (s *Simulation) Run(
	ctx context.Context,
	names ...string,
) ([]testbench.Result, error) {
	tests, err := s.selectTests(names)
	if err != nil {
		return nil, err
	}

	results := make([]testbench.Result, 0, len(tests))
	for _, t := range tests {
		if ctx.Err() != nil {
			break
		}

		results = append(results, s.runner.Run(ctx, t))
	}

	return results, nil
}

func (s *Simulation) selectTests(names []string) ([]testbench.Test, error) {
	if len(names) == 0 {
		return s.suite.Tests(), nil
	}

	tests := make([]testbench.Test, 0, len(names))
	for _, name := range names {
		t, err := s.suite.Test(name)
		if err != nil {
			return nil, err
		}

		tests = append(tests, t)
	}

	return tests, nil
}

// Terminate closes the data recorder.
func (s *Simulation) Terminate() error {
	if s.dataRecorder == nil {
		return nil
	}

	return s.dataRecorder.Close()
}
