package testbench

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/sarchlab/rs232sim/sim"
	"github.com/sarchlab/rs232sim/sim/signal"
)

// A TestFunc is the body of a test. It runs as the main task of the test.
type TestFunc func(tb *TB, dut *signal.Bundle) error

// A Test is a named test body.
type Test struct {
	Name string
	Func TestFunc

	// TimeLimit overrides the time limit of the runner if it is not zero.
	TimeLimit sim.VTimeInSec
}

// DUT is what a Setup function builds for each test.
type DUT struct {
	Pins       *signal.Bundle
	Components []sim.Component
}

// A SetupFunc builds a fresh device on the engine.
type SetupFunc func(engine sim.Engine) (DUT, error)

// Result is the outcome of a test.
type Result struct {
	Name      string
	Passed    bool
	Err       error
	SimTime   sim.VTimeInSec
	WallTime  time.Duration
	Unchecked []string
}

// An Observer is notified when tests start and finish.
type Observer interface {
	TestStarted(name string, engine sim.Engine, dut DUT)
	TestFinished(result Result)
}

type timeLimitEvent struct {
	*sim.EventBase
	hit   bool
	sched *Scheduler
}

func (e *timeLimitEvent) expire() {
	if e.sched.main.Done() {
		return
	}

	e.hit = true
	e.sched.Shutdown()
}

// Builder can build runners.
type Builder struct {
	setup     SetupFunc
	logOutput io.Writer
	timeLimit sim.VTimeInSec
	hooks     []sim.Hook
	observers []Observer
}

// MakeBuilder creates a builder. Test logs go to io.Discard by default.
func MakeBuilder() Builder {
	return Builder{
		logOutput: io.Discard,
	}
}

// WithSetup sets the function that builds the device for each test.
func (b Builder) WithSetup(setup SetupFunc) Builder {
	b.setup = setup
	return b
}

// WithLogOutput sets where the test logs go.
func (b Builder) WithLogOutput(w io.Writer) Builder {
	b.logOutput = w
	return b
}

// WithTimeLimit sets the default simulated time limit of the tests. Zero
// means no limit.
func (b Builder) WithTimeLimit(limit sim.VTimeInSec) Builder {
	b.timeLimit = limit
	return b
}

// WithEngineHook adds a hook to the engine of every test.
func (b Builder) WithEngineHook(hook sim.Hook) Builder {
	b.hooks = append(b.hooks, hook)
	return b
}

// WithObserver adds an observer of the tests.
func (b Builder) WithObserver(o Observer) Builder {
	b.observers = append(b.observers, o)
	return b
}

// Build creates a runner.
func (b Builder) Build() *Runner {
	if b.setup == nil {
		log.Panic("testbench runner: setup is not set")
	}

	return &Runner{
		setup:     b.setup,
		logOutput: b.logOutput,
		timeLimit: b.timeLimit,
		hooks:     b.hooks,
		observers: b.observers,
	}
}

// Runner runs tests, each on a fresh engine and a fresh device.
type Runner struct {
	setup     SetupFunc
	logOutput io.Writer
	timeLimit sim.VTimeInSec
	hooks     []sim.Hook
	observers []Observer
}

// Run runs a test until its main task returns, the time limit is reached, or
// ctx is done.
func (r *Runner) Run(ctx context.Context, test Test) Result {
	start := time.Now()
	result := Result{Name: test.Name}

	if err := ctx.Err(); err != nil {
		result.Err = err
		result.WallTime = time.Since(start)
		r.notifyFinished(result)

		return result
	}

	engine := sim.NewSerialEngine()
	for _, h := range r.hooks {
		engine.AcceptHook(h)
	}

	dut, err := r.setup(engine)
	if err != nil {
		result.Err = fmt.Errorf("setting up %s: %w", test.Name, err)
		result.WallTime = time.Since(start)
		r.notifyFinished(result)

		return result
	}

	for _, o := range r.observers {
		o.TestStarted(test.Name, engine, dut)
	}

	sched := NewScheduler(engine)
	sched.env = &tbEnv{name: test.Name, out: r.logOutput}
	sched.main = sched.StartSoon(test.Name, func(tb *TB) error {
		return test.Func(tb, dut.Pins)
	})
	sched.main.onDone(sched.Shutdown)

	limit := r.scheduleTimeLimit(sched, test)

	stop := context.AfterFunc(ctx, engine.Terminate)
	runErr := engine.Run()
	stop()
	ctxErr := ctx.Err()

	result.SimTime = engine.CurrentTime()
	mainDone := sched.main.Done()
	engine.Finished()
	sched.Shutdown()

	result.Err = r.testError(ctxErr, sched, limit, mainDone, runErr)
	result.Passed = result.Err == nil
	result.Unchecked = sched.env.unchecked
	result.WallTime = time.Since(start)

	r.notifyFinished(result)

	return result
}

func (r *Runner) scheduleTimeLimit(
	sched *Scheduler,
	test Test,
) *timeLimitEvent {
	limit := r.timeLimit
	if test.TimeLimit > 0 {
		limit = test.TimeLimit
	}

	if limit <= 0 {
		return nil
	}

	evt := &timeLimitEvent{
		EventBase: sim.NewEventBase(limit, sched),
		sched:     sched,
	}
	sched.engine.Schedule(evt)

	return evt
}

// testError picks the reason a test ended. A context that is done by the time
// the engine stops wins over the outcome of the test body.
func (r *Runner) testError(
	ctxErr error,
	sched *Scheduler,
	limit *timeLimitEvent,
	mainDone bool,
	runErr error,
) error {
	switch {
	case runErr != nil:
		return runErr
	case ctxErr != nil:
		return ctxErr
	case limit != nil && limit.hit:
		return fmt.Errorf("%w at %.2fus",
			ErrTimeLimit, float64(limit.Time())*1e6)
	case sched.failure != nil:
		return sched.failure
	case !mainDone:
		return ErrNoMoreEvents
	default:
		return sched.main.Err()
	}
}

func (r *Runner) notifyFinished(result Result) {
	for _, o := range r.observers {
		o.TestFinished(result)
	}
}
