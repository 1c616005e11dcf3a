package testbench

import (
	"errors"
	"fmt"

	"github.com/sarchlab/rs232sim/clock"
	"github.com/sarchlab/rs232sim/sim"
)

// ErrCancelled is returned by Await when the task is cancelled, for example
// because the test that started it has finished.
var ErrCancelled = errors.New("task cancelled")

type resumeEvent struct {
	*sim.EventBase
	task *Task
}

// Scheduler runs tasks in turn with the engine. A task runs until it awaits
// a trigger or returns. The engine goroutine blocks while a task runs.
type Scheduler struct {
	engine sim.Engine
	tasks  []*Task
	clocks []*clock.Clock
	env    *tbEnv

	main    *Task
	current *Task
	failure error
}

// NewScheduler creates a scheduler on an engine.
func NewScheduler(engine sim.Engine) *Scheduler {
	return &Scheduler{
		engine: engine,
	}
}

// Name returns the name of the scheduler.
func (s *Scheduler) Name() string {
	return "Testbench"
}

// Engine returns the engine the scheduler runs on.
func (s *Scheduler) Engine() sim.Engine {
	return s.engine
}

// Handle resumes the task of a resume event.
func (s *Scheduler) Handle(e sim.Event) error {
	switch e := e.(type) {
	case *resumeEvent:
		s.resume(e.task, nil)
	case *timerEvent:
		e.trigger.expire()
	case *timeLimitEvent:
		e.expire()
	default:
		return fmt.Errorf("testbench: cannot handle event of type %T", e)
	}

	return nil
}

// Tasks returns all the tasks that are created, including the finished ones.
func (s *Scheduler) Tasks() []*Task {
	return s.tasks
}

// StartSoon creates a task that starts at the current time, after the
// running task yields.
func (s *Scheduler) StartSoon(name string, fn func(tb *TB) error) *Task {
	t := newTask(s, name, fn)
	s.tasks = append(s.tasks, t)
	s.scheduleResume(t)

	return t
}

func (s *Scheduler) scheduleResume(t *Task) {
	evt := &resumeEvent{
		EventBase: sim.NewSecondaryEventBase(s.engine.CurrentTime(), s),
		task:      t,
	}
	s.engine.Schedule(evt)
}

// resume passes control to the task and blocks until it yields or returns.
func (s *Scheduler) resume(t *Task, err error) {
	prev := s.current

	switch t.state {
	case taskDone, taskRunning:
		return
	case taskCreated:
		if t.cancelled {
			s.finish(t, ErrCancelled)
			return
		}

		t.state = taskRunning
		s.current = t
		go t.run(s.newTB(t))
	case taskWaiting:
		t.pending = nil
		s.current = t
		t.resume <- err
	}

	<-t.yield
	s.current = prev

	if t.state == taskDone {
		s.taskFinished(t)
	}
}

func (s *Scheduler) taskFinished(t *Task) {
	s.notifyDone(t)

	if t == s.main || t.err == nil || errors.Is(t.err, ErrCancelled) {
		return
	}

	if s.failure == nil {
		s.failure = fmt.Errorf("task %s: %w", t.name, t.err)
	}

	s.Shutdown()
}

// Failure returns the first error returned by a task other than the main
// task.
func (s *Scheduler) Failure() error {
	return s.failure
}

func (s *Scheduler) finish(t *Task, err error) {
	t.err = err
	t.state = taskDone
	s.notifyDone(t)
}

func (s *Scheduler) notifyDone(t *Task) {
	watchers := t.doneWatchers
	t.doneWatchers = nil

	for _, w := range watchers {
		w()
	}
}

// await is called on the task goroutine.
func (s *Scheduler) await(t *Task, trigger Trigger) error {
	if t.cancelled {
		return ErrCancelled
	}

	t.pending = trigger
	trigger.prime(s, func() { s.scheduleResume(t) })

	return t.wait()
}

// Cancel stops a task. A waiting task returns from Await with ErrCancelled
// and is run until it returns. A task that has not started never starts.
func (s *Scheduler) Cancel(t *Task) {
	if t.state == taskDone || t.cancelled {
		return
	}

	t.cancelled = true

	if t.state == taskCreated {
		s.finish(t, ErrCancelled)
		return
	}

	if t.pending != nil {
		t.pending.unprime()
		t.pending = nil
	}

	s.resume(t, ErrCancelled)
}

func (s *Scheduler) startClock(c *clock.Clock) {
	s.clocks = append(s.clocks, c)
	c.Start()
}

// Shutdown stops all the clocks, drops the pending events of the engine and
// cancels all the unfinished tasks.
func (s *Scheduler) Shutdown() {
	for _, c := range s.clocks {
		c.Stop()
	}

	s.engine.Terminate()

	for _, t := range s.tasks {
		if t != s.current {
			s.Cancel(t)
		}
	}
}
