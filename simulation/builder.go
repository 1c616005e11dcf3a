package simulation

import (
	"io"
	"log"

	"github.com/rs/xid"

	"github.com/sarchlab/rs232sim/datarecording"
	"github.com/sarchlab/rs232sim/monitoring"
	"github.com/sarchlab/rs232sim/sim"
)

// Builder can be used to build a simulation.
type Builder struct {
	recordOn       bool
	recordSignals  bool
	outputFileName string
	clickHouse     *datarecording.ClickHouseOptions

	monitorOn   bool
	monitorPort int
	openBrowser bool

	logOutput   io.Writer
	eventLogger *log.Logger
}

// MakeBuilder creates a new builder. By default, nothing is recorded, the
// monitor is off and test logs are discarded.
func MakeBuilder() Builder {
	return Builder{
		logOutput: io.Discard,
	}
}

// WithRecording records test results into <fileName>.sqlite3. An empty name
// generates one from the simulation ID.
func (b Builder) WithRecording(fileName string) Builder {
	b.recordOn = true
	b.outputFileName = fileName

	return b
}

// WithClickHouse records into a ClickHouse server instead of SQLite.
func (b Builder) WithClickHouse(opts datarecording.ClickHouseOptions) Builder {
	b.recordOn = true
	b.clickHouse = &opts

	return b
}

// WithSignalRecording also records every pin change and device event.
func (b Builder) WithSignalRecording() Builder {
	b.recordSignals = true
	return b
}

// WithMonitoring starts a monitoring server.
func (b Builder) WithMonitoring() Builder {
	b.monitorOn = true
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithBrowser opens the monitor in a browser.
func (b Builder) WithBrowser() Builder {
	b.openBrowser = true
	return b
}

// WithLogOutput sets where test logs go.
func (b Builder) WithLogOutput(w io.Writer) Builder {
	b.logOutput = w
	return b
}

// WithEventLogger logs every event of the engine.
func (b Builder) WithEventLogger(logger *log.Logger) Builder {
	b.eventLogger = logger
	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.monitorOn && (b.monitorPort != 0 || b.openBrowser) {
		panic("monitor options cannot be set when monitoring is disabled")
	}

	if !b.recordOn && b.recordSignals {
		panic("signal recording requires recording")
	}
}

// Build builds the simulation of a suite.
func (b Builder) Build(suite Suite) (*Simulation, error) {
	b.parametersMustBeValid()

	s := &Simulation{
		id:    xid.New().String(),
		suite: suite,
	}

	runner := suite.Runner().WithLogOutput(b.logOutput)

	if b.eventLogger != nil {
		runner = runner.WithEngineHook(sim.NewEventLogger(b.eventLogger))
	}

	if b.recordOn {
		recorder, err := b.buildRecorder(s.id)
		if err != nil {
			return nil, err
		}

		s.dataRecorder = recorder
		runner = runner.WithObserver(
			datarecording.NewTestRecorder(recorder, b.recordSignals))
	}

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor().
			WithPortNumber(b.monitorPort).
			WithBrowser(b.openBrowser).
			WithExpectedTime(suite.Config().TimeLimit())
		runner = runner.WithObserver(s.monitor)
		s.monitorURL = s.monitor.StartServer()
	}

	s.runner = runner.Build()

	return s, nil
}

func (b Builder) buildRecorder(id string) (datarecording.DataRecorder, error) {
	if b.clickHouse != nil {
		return datarecording.NewClickHouseRecorder(*b.clickHouse)
	}

	outputPath := b.outputFileName
	if outputPath == "" {
		outputPath = "rs232sim_" + id
	}

	return datarecording.NewDataRecorder(outputPath), nil
}
