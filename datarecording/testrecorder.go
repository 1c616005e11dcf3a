package datarecording

import (
	"fmt"
	"strings"

	"github.com/sarchlab/rs232sim/sim"
	"github.com/sarchlab/rs232sim/sim/signal"
	"github.com/sarchlab/rs232sim/testbench"
)

// Table names used by TestRecorder.
const (
	TestResultTable   = "test_result"
	SignalChangeTable = "signal_change"
	DeviceEventTable  = "device_event"
)

// TestResultEntry is a row of the test_result table.
type TestResultEntry struct {
	Test       string
	Passed     bool
	Error      string
	SimTimeUS  float64
	WallTimeMS float64
	Unchecked  string
}

// SignalChangeEntry is a row of the signal_change table.
type SignalChangeEntry struct {
	Test   string
	TimeUS float64
	Signal string
	Value  int64
}

// DeviceEventEntry is a row of the device_event table.
type DeviceEventEntry struct {
	Test      string
	TimeUS    float64
	Component string
	Event     string
	Detail    string
}

// TestRecorder records the results of tests. With signal recording on, it
// also records every pin change and every hook a device component fires.
type TestRecorder struct {
	recorder      DataRecorder
	recordSignals bool

	test   string
	engine sim.TimeTeller
}

// NewTestRecorder creates the tables in the recorder.
func NewTestRecorder(recorder DataRecorder, recordSignals bool) *TestRecorder {
	r := &TestRecorder{
		recorder:      recorder,
		recordSignals: recordSignals,
	}

	recorder.CreateTable(TestResultTable, TestResultEntry{})

	if recordSignals {
		recorder.CreateTable(SignalChangeTable, SignalChangeEntry{})
		recorder.CreateTable(DeviceEventTable, DeviceEventEntry{})
	}

	return r
}

// TestStarted hooks the pins and the components of the device.
func (r *TestRecorder) TestStarted(
	name string,
	engine sim.Engine,
	dut testbench.DUT,
) {
	r.test = name
	r.engine = engine

	if !r.recordSignals {
		return
	}

	hook := sim.HookFunc(r.Func)

	for _, s := range dut.Pins.Signals() {
		s.AcceptHook(hook)
	}

	for _, c := range dut.Components {
		c.AcceptHook(hook)
	}
}

// TestFinished records the result and flushes the recorder.
func (r *TestRecorder) TestFinished(result testbench.Result) {
	entry := TestResultEntry{
		Test:       result.Name,
		Passed:     result.Passed,
		SimTimeUS:  float64(result.SimTime) * 1e6,
		WallTimeMS: float64(result.WallTime.Microseconds()) / 1e3,
		Unchecked:  strings.Join(result.Unchecked, "; "),
	}

	if result.Err != nil {
		entry.Error = result.Err.Error()
	}

	r.recorder.InsertData(TestResultTable, entry)
	r.recorder.Flush()
}

// Func records a signal change or a device event.
func (r *TestRecorder) Func(ctx sim.HookCtx) {
	if ctx.Pos == signal.HookPosChange {
		r.recordChange(ctx)
		return
	}

	if ctx.Pos == sim.HookPosBeforeEvent || ctx.Pos == sim.HookPosAfterEvent {
		return
	}

	named, ok := ctx.Domain.(sim.Named)
	if !ok {
		return
	}

	r.recorder.InsertData(DeviceEventTable, DeviceEventEntry{
		Test:      r.test,
		TimeUS:    r.nowUS(),
		Component: named.Name(),
		Event:     ctx.Pos.Name,
		Detail:    fmt.Sprintf("%+v", ctx.Detail),
	})
}

func (r *TestRecorder) recordChange(ctx sim.HookCtx) {
	s, ok := ctx.Item.(*signal.Signal)
	if !ok {
		return
	}

	change := ctx.Detail.(signal.Change)

	r.recorder.InsertData(SignalChangeTable, SignalChangeEntry{
		Test:   r.test,
		TimeUS: float64(change.Time) * 1e6,
		Signal: s.Name(),
		Value:  int64(change.New),
	})
}

func (r *TestRecorder) nowUS() float64 {
	if r.engine == nil {
		return 0
	}

	return float64(r.engine.CurrentTime()) * 1e6
}
