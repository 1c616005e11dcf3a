package testbench

import (
	"fmt"
	"io"
	"log"

	"github.com/sarchlab/rs232sim/clock"
	"github.com/sarchlab/rs232sim/sim"
	"github.com/sarchlab/rs232sim/sim/signal"
)

// tbEnv is shared by all the tasks of one test.
type tbEnv struct {
	name      string
	out       io.Writer
	logger    *log.Logger
	unchecked []string
	taskCount int
}

// TB is the handle a task uses to interact with the simulation. Each task has
// its own TB.
type TB struct {
	sched *Scheduler
	task  *Task
	env   *tbEnv

	// Log writes messages prefixed with the simulated time and the test name.
	Log *log.Logger
}

func (s *Scheduler) newTB(t *Task) *TB {
	if s.env == nil {
		s.env = &tbEnv{name: "test", out: io.Discard}
	}

	if s.env.logger == nil {
		s.env.logger = log.New(&logWriter{sched: s, env: s.env}, "", 0)
	}

	return &TB{
		sched: s,
		task:  t,
		env:   s.env,
		Log:   s.env.logger,
	}
}

// Name returns the name of the test.
func (tb *TB) Name() string {
	return tb.env.name
}

// Task returns the task that owns this TB.
func (tb *TB) Task() *Task {
	return tb.task
}

// Now returns the current simulated time.
func (tb *TB) Now() sim.VTimeInSec {
	return tb.sched.engine.CurrentTime()
}

// Await blocks the task until the trigger fires. It returns ErrCancelled if
// the task is cancelled while waiting, after which the task should return.
func (tb *TB) Await(trigger Trigger) error {
	return tb.sched.await(tb.task, trigger)
}

// StartSoon starts fn as a new task at the current time. The new task runs
// after the calling task yields.
func (tb *TB) StartSoon(fn func(tb *TB) error) *Task {
	tb.env.taskCount++
	name := fmt.Sprintf("%s.Task[%d]", tb.env.name, tb.env.taskCount)

	return tb.sched.StartSoon(name, fn)
}

// Cancel cancels another task.
func (tb *TB) Cancel(t *Task) {
	if t == tb.task {
		log.Panic("a task cannot cancel itself")
	}

	tb.sched.Cancel(t)
}

// StartClock starts a clock that drives the signal. The clock stops when the
// test ends.
func (tb *TB) StartClock(sig *signal.Signal, freq sim.Freq) *clock.Clock {
	c := clock.MakeBuilder().
		WithEngine(tb.sched.engine).
		WithFreq(freq).
		Build(sig.Name()+".Clock", sig)

	tb.sched.startClock(c)

	return c
}

// Uncheckedf records a property that the test deliberately does not check.
// It does not fail the test.
func (tb *TB) Uncheckedf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	tb.env.unchecked = append(tb.env.unchecked, msg)
	tb.Log.Printf("unchecked: %s", msg)
}

// Unchecked returns the properties recorded with Uncheckedf.
func (tb *TB) Unchecked() []string {
	return tb.env.unchecked
}
